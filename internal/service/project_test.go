package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/issuetracker/internal/domain"
)

func TestResolve_CachesHandles(t *testing.T) {
	r := NewProjectResolver(&stubStore{})

	a := r.Resolve("alpha")
	assert.Same(t, a, r.Resolve("alpha"))
	assert.NotSame(t, a, r.Resolve("beta"))
	assert.Equal(t, "alpha", a.Project())
}

func TestResolve_Concurrent(t *testing.T) {
	r := NewProjectResolver(&stubStore{})

	var wg sync.WaitGroup
	sets := make([]*RecordSet, 16)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i] = r.Resolve("shared")
		}(i)
	}
	wg.Wait()

	for _, rs := range sets {
		assert.Same(t, sets[0], rs)
	}
}

func TestRecordSet_BindsProject(t *testing.T) {
	store := &stubStore{matched: 1, deleted: 1}
	rs := NewProjectResolver(store).Resolve("apitest")

	issue, err := rs.Insert(context.Background(), domain.Issue{Project: "other", IssueTitle: "T"})
	require.NoError(t, err)
	assert.Equal(t, "apitest", issue.Project)

	_, err = rs.UpdateOne(context.Background(), validID, domain.Changes{"issue_text": "x"})
	require.NoError(t, err)
	assert.Equal(t, "apitest", store.updates[0].project)

	_, err = rs.DeleteOne(context.Background(), validID)
	require.NoError(t, err)
	assert.Equal(t, []string{"apitest/" + validID}, store.deletes)
}
