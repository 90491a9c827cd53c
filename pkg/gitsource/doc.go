// Package gitsource keeps prototype content in sync with a Git repository.
//
// A Repository clones the configured branch into content.git.local_path on
// its first Sync and pulls on every later one. The catalog manager syncs
// before each load, so scheduled rescans pick up pushed content:
//
//	repo, err := gitsource.NewRepository(&cfg.Content.Git, cfg.Content.Path, logger)
//	if err != nil {
//	    return err
//	}
//	manager.WithSource(repo)
//
// Authentication supports HTTPS tokens, SSH keys and anonymous access.
package gitsource
