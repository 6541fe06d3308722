package types

// Notebook is a remote knowledge-base container holding note and file
// resources organized in directories.
type Notebook struct {
	ID            int64
	IDAlias       string
	Name          string
	RootDirID     int64
	ResourceCount int
}

// DirectoryRef identifies a subdirectory discovered while walking a
// notebook. Directories ride along on the first page of a directory listing
// and are walked depth-first by the engine.
type DirectoryRef struct {
	ID   int64
	Name string
}
