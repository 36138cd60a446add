package git

import (
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig contains configuration for cloning a repository
type CloneConfig struct {
	// URL is the repository URL to clone
	URL string

	// Branch is the specific branch to clone (optional)
	Branch string

	// Tag is the specific tag to clone (optional)
	Tag string

	// Commit is the specific commit to check out (optional). Forces a full clone.
	Commit string

	// Auth enables HTTP basic authentication for private repositories
	Auth *BasicAuth
}

// BasicAuth holds HTTP basic credentials. Hosted providers accept a token as the password.
type BasicAuth struct {
	Username string
	Password string
}

// RepositoryInfo contains information about a cloned repository
type RepositoryInfo struct {
	// Repository is the go-git repository instance
	Repository *git.Repository

	// Branch is the checked out branch name, empty for tags and detached commits
	Branch string

	// CommitHash is the commit the worktree points at
	CommitHash string

	// RemoteURL is the remote repository URL
	RemoteURL string

	// storerFilesystem holds the object database; go-git never frees it on its own
	storerFilesystem billy.Filesystem

	// objectCache holds decompressed objects and must be cleared explicitly
	objectCache cache.Object
}
