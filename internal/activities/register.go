package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.SyncDocumentsActivity)
	w.RegisterActivity(a.ClearStoreActivity)
	w.RegisterActivity(a.IngestDocumentsActivity)
	w.RegisterActivity(a.ClearAllActivity)
}
