package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"hrreport/internal/dataprocessing"
	"hrreport/internal/exporter"
)

var funcs = template.FuncMap{
	"money": exporter.FormatCurrency,
}

var reportTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`<html>
<body>
<p>Hi{{with .RecipientName}} {{.}}{{end}},</p>

<p>Attached are the Excel workbook with the cleaned employee data and its pivot table analysis, and a snapshot of the pivot table for quick reference.</p>
{{with .RepositoryURL}}
<p>The automation that produced this report lives at <a href="{{.}}">{{.}}</a>.</p>
{{end}}
{{with .Insights}}
<h3>Overview</h3>
<p>{{.Employees}} employees are in the report, with an average annual salary of {{money .MeanSalary}} (median {{money .MedianSalary}}).</p>

<h3>Key Insights</h3>
<ul>
{{if .ByGender}}<li><strong>Gender pay gap:</strong>
<ul>
{{range .ByGender}}<li>{{.Name}}: {{money .Average}} across {{.Count}} employees</li>
{{end}}{{if .GapLeader}}<li>On average, {{.GapLeader}} employees earn {{money .GenderGap}} more than the lowest-paid group.</li>
{{end}}</ul>
</li>
{{end}}{{if .ByEthnicity}}<li><strong>Salaries by ethnicity:</strong>
<ul>
{{range .ByEthnicity}}<li><strong>{{.Ethnicity}}:</strong> {{.Highest.Name}} employees are highest at {{money .Highest.Average}} ({{range $i, $g := .ByGender}}{{if $i}}, {{end}}{{$g.Name}}: {{money $g.Average}}{{end}}), a spread of {{money .Spread}}.</li>
{{end}}</ul>
</li>
{{end}}{{if .ByBusiness}}<li><strong>Business units:</strong>
<ul>
<li>Highest average salary: {{.TopBusiness.Name}} at {{money .TopBusiness.Average}}.</li>
<li>Lowest average salary: {{.LowBusiness.Name}} at {{money .LowBusiness.Average}}.</li>
</ul>
</li>
{{end}}{{if .ByDepartment}}<li><strong>Departments:</strong>
<ul>
{{range .ByDepartment}}<li>{{.Name}}: {{money .Average}}</li>
{{end}}</ul>
</li>
{{end}}</ul>
{{end}}
<p>Generated {{.Generated}}.</p>

<p>Best regards,</p>
{{with .SenderName}}<p><strong>{{.}}</strong></p>{{end}}
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<html>
<body>
<p>The employee report run {{with .RunID}}{{.}} {{end}}failed after {{.Attempts}} attempt(s). The last error was:</p>

<p><strong>Error message:</strong></p>
<pre>{{.Message}}</pre>

<p>Reported {{.Generated}}.</p>
</body>
</html>
`))

// ReportData feeds the report email body
type ReportData struct {
	RecipientName string
	SenderName    string
	RepositoryURL string
	Insights      *dataprocessing.Insights
	Generated     string
}

// ErrorData feeds the error email body
type ErrorData struct {
	RunID     string
	Attempts  int
	Message   string
	Generated string
}

// RenderReportBody renders the HTML body of the report email
func RenderReportBody(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report body: %w", err)
	}
	return buf.String(), nil
}

// RenderErrorBody renders the HTML body of the error email
func RenderErrorBody(data ErrorData) (string, error) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render error body: %w", err)
	}
	return buf.String(), nil
}

func timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02 15:04 MST")
}
