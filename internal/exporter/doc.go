// Package exporter writes the report artifacts: the Excel workbook with its
// Data, Pivot and Summary sheets, a CSV copy of the filtered table, and a PNG
// snapshot of the pivot aggregation.
//
// Workbook and Capturer are small interfaces so the layout logic in
// WriteReport can be tested without Excel or Chrome. ExcelWorkbook implements
// Workbook on excelize; ChromeCapturer renders the pivot as HTML and takes an
// element screenshot with chromedp.
package exporter
