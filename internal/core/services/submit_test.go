package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extindex/extindex/internal/core/domain"
)

func TestSubmitNewRepository(t *testing.T) {
	repos := newMockRepositoryStore()
	queue := &mockQueue{}
	submitter := NewSubmitter(repos, queue)

	repo, created, err := submitter.Submit(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "acme/widget", repo.FullName())

	// Exactly one record, one import task and one subscription task.
	_, again, err := repos.GetOrCreate(context.Background(), domain.RepoKey{Owner: "acme", Name: "widget"})
	require.NoError(t, err)
	assert.False(t, again)
	assert.Equal(t, 1, queue.count(domain.TaskUpdate))
	assert.Equal(t, 1, queue.count(domain.TaskSubscribe))
}

func TestSubmitExistingRepositoryReimports(t *testing.T) {
	repos := newMockRepositoryStore()
	queue := &mockQueue{}
	submitter := NewSubmitter(repos, queue)

	seeded := repos.add("acme", "widget")
	hookID := int64(5)
	repos.byID[seeded.ID].WebhookID = &hookID

	repo, created, err := submitter.Submit(context.Background(), "acme/widget")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, seeded.ID, repo.ID)
	assert.Equal(t, 1, queue.count(domain.TaskUpdate))
	assert.Equal(t, 0, queue.count(domain.TaskSubscribe), "already subscribed")
}

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.RepoKey
		wantErr bool
	}{
		{name: "https url", input: "https://github.com/acme/widget", want: domain.RepoKey{Owner: "acme", Name: "widget"}},
		{name: "trailing slash", input: "https://github.com/acme/widget/", want: domain.RepoKey{Owner: "acme", Name: "widget"}},
		{name: "git suffix", input: "https://github.com/acme/widget.git", want: domain.RepoKey{Owner: "acme", Name: "widget"}},
		{name: "www host", input: "https://www.github.com/acme/widget", want: domain.RepoKey{Owner: "acme", Name: "widget"}},
		{name: "bare reference", input: "acme/widget", want: domain.RepoKey{Owner: "acme", Name: "widget"}},
		{name: "other host", input: "https://gitlab.com/acme/widget", wantErr: true},
		{name: "missing name", input: "https://github.com/acme", wantErr: true},
		{name: "deep path", input: "https://github.com/acme/widget/tree/main", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRepositoryURL(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
