// Package notify composes and sends the pipeline's emails over SMTP with
// go-mail: the report email carrying the workbook and pivot snapshot, and the
// error email sent when every attempt has failed.
package notify
