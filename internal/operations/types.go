package operations

import (
	"time"
)

// Pipeline step identifiers, in run order
const (
	StageIDFetch     = "fetch"
	StageIDDownload  = "download"
	StageIDExtract   = "extract"
	StageIDTransform = "transform"
	StageIDReport    = "report"
	StageIDNotify    = "notify"
)

// Pipeline step names
const (
	StageNameFetch     = "Page Fetch"
	StageNameDownload  = "Download Wait"
	StageNameExtract   = "Archive Extraction"
	StageNameTransform = "Data Transform"
	StageNameReport    = "Report Generation"
	StageNameNotify    = "Report Email"
)

// Default timeouts
const (
	DefaultStageTimeout     = 5 * time.Minute
	DefaultTransformTimeout = 2 * time.Minute
)

// ExtractDirName is the folder under the work dir the archive is unpacked into
const ExtractDirName = "extracted"
