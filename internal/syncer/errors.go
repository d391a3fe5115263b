package syncer

import "errors"

// ErrSynchronization marks structural failures of a synchronization run,
// such as an empty subtitle timeline. Quality degradations inside a run
// fall back to simpler strategies and are logged instead.
var ErrSynchronization = errors.New("synchronization error")
