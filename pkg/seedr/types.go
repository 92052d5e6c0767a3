package seedr

import "errors"

var (
	// ErrCredentialsNotSet indicates the client was built without credentials.
	ErrCredentialsNotSet = errors.New("seedr credentials not set")

	// ErrAuthFailed indicates the service rejected the credentials. This is
	// fatal for the download phase; it is never retried within a run.
	ErrAuthFailed = errors.New("seedr authentication failed")

	// ErrNotReady indicates no matching content appeared on the remote
	// service within the polling budget.
	ErrNotReady = errors.New("no matching remote content ready")
)

// Contents is a folder listing.
type Contents struct {
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// Folder is a remote folder; finished torrents surface as folders.
type Folder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// File is a remote file inside a folder listing.
type File struct {
	ID   int64  `json:"folder_file_id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type userSettings struct {
	Account struct {
		Username string `json:"username"`
	} `json:"account"`
}

type magnetResult struct {
	Result    bool   `json:"result"`
	Title     string `json:"title"`
	TorrentID int64  `json:"user_torrent_id"`
}

type fetchResult struct {
	URL string `json:"url"`
}

type deleteResult struct {
	Result bool `json:"result"`
}
