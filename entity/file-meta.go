package entity

const (
	ContentTypePdf  = "application/pdf"
	ContentTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type FileMeta struct {
	FileName      string
	ContentType   string
	ContentLength int64
}
