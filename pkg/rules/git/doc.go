// Package git syncs rule files from a Git repository. The Repository
// type clones and pulls with token, SSH key or anonymous
// authentication; the Poller watches for new commits and triggers a
// reload when rule files change.
//
//	repo, err := git.NewRepository(&cfg.Rules.Git)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	poller := git.NewPoller(repo, cfg.Rules.Git.Poll.Interval, logger, reload)
//	poller.Start(ctx)
//	defer poller.Stop()
package git
