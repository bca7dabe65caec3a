package domain

import "context"

// RemoteOperation issues the initial external call for a job and normalizes
// its outcome. Implementations fail fast with ErrMissingCredential when apiKey
// is empty.
type RemoteOperation interface {
	Provider() string
	Submit(ctx context.Context, job Job, apiKey string) Outcome
}

// RemotePoller re-queries a deferred operation by its stored handle.
type RemotePoller interface {
	Poll(ctx context.Context, job Job, apiKey string) (PollResult, error)
	// Finalize turns a raw result reference into a consumable one.
	Finalize(ref, apiKey string) string
}

// CredentialSource exposes the configured provider keys.
type CredentialSource interface {
	APIKeys(ctx context.Context) (APIKeys, error)
}

// JobArchiver receives jobs that just completed.
type JobArchiver interface {
	Archive(ctx context.Context, job Job)
}
