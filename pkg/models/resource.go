package models

// Resource is a single torrent candidate returned by the search collaborator.
type Resource struct {
	Title  string `json:"title"`
	Magnet string `json:"magnet"`
}

// RemoteItem identifies a completed payload on the remote download service,
// either a single file or a folder of files.
type RemoteItem struct {
	FileID   int64
	FolderID int64
	Name     string
	Size     int64
	Folder   bool
}
