// Package git clones launch repositories into memory and reads files from them.
//
// The Client interface is a thin wrapper around go-git:
//   - Clone: shallow clone of a branch or tag, or a full clone when a commit is pinned
//   - GetFileContent: read a file from the checked out commit
//   - Cleanup: release the in-memory object database and worktree
//
// Clones never touch the local disk. Both the worktree and the object store
// sit behind a LimitedFs, which caps the number of files and the total bytes
// written so an oversized repository fails the clone instead of exhausting memory.
//
//	client := git.NewDefaultGitClient()
//	repoInfo, err := client.Clone(ctx, &git.CloneConfig{
//	    URL:    "https://github.com/example/launches.git",
//	    Branch: "main",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Cleanup(ctx, repoInfo)
//
//	content, err := client.GetFileContent(repoInfo, "data/launches.json")
package git
