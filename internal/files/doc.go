// Package files handles the filesystem side of a run: waiting for the
// browser download to land, unpacking the archive and locating the workbook.
//
// DownloadWatcher polls the download directory and only reports an archive
// once it carries no in-progress marker and its size has held steady across
// two polls. Extract unpacks an archive and refuses entries that would escape
// the destination. Manager and Discovery are small helpers over config.Paths.
package files
