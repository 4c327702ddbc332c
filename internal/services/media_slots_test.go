package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundraising-backend/internal/models"
)

// fakeMediaStore enforces the (project_id, position) uniqueness
// constraint under a mutex so concurrent confirms race realistically.
type fakeMediaStore struct {
	project *models.Project

	mu    sync.Mutex
	media map[uuid.UUID]models.MediaAttachment
}

func newFakeMediaStore(project *models.Project) *fakeMediaStore {
	return &fakeMediaStore{
		project: project,
		media:   make(map[uuid.UUID]models.MediaAttachment),
	}
}

func (f *fakeMediaStore) GetProject(projectID uuid.UUID) (*models.Project, error) {
	if f.project == nil || f.project.ID != projectID {
		return nil, models.ErrNotFound
	}
	copy := *f.project
	return &copy, nil
}

func (f *fakeMediaStore) CountMedia(projectID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, m := range f.media {
		if m.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMediaStore) ListMedia(projectID uuid.UUID) ([]models.MediaAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.MediaAttachment
	for _, m := range f.media {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMediaStore) InsertMediaAt(projectID uuid.UUID, storagePath string, position int, altText string) (*models.MediaAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.media {
		if m.ProjectID == projectID && m.Position == position {
			return nil, models.ErrConflict
		}
	}

	attachment := models.MediaAttachment{
		ID:          uuid.New(),
		ProjectID:   projectID,
		StoragePath: storagePath,
		Position:    position,
		AltText:     altText,
		CreatedAt:   time.Now(),
	}
	f.media[attachment.ID] = attachment
	return &attachment, nil
}

func (f *fakeMediaStore) GetMedia(projectID, mediaID uuid.UUID) (*models.MediaAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.media[mediaID]
	if !ok || m.ProjectID != projectID {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMediaStore) DeleteMedia(projectID, mediaID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.media[mediaID]
	if !ok || m.ProjectID != projectID {
		return models.ErrNotFound
	}
	delete(f.media, mediaID)
	return nil
}

func (f *fakeMediaStore) UpdateMediaAltText(projectID, mediaID uuid.UUID, altText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.media[mediaID]
	if !ok || m.ProjectID != projectID {
		return models.ErrNotFound
	}
	m.AltText = altText
	f.media[mediaID] = m
	return nil
}

type fakeSigner struct {
	signCalls int
	deleted   []string
}

func (f *fakeSigner) SignUploadURL(storagePath string) (string, string, time.Time, error) {
	f.signCalls++
	return "https://storage.example/upload/" + storagePath, "signed-token", time.Now().Add(2 * time.Hour), nil
}

func (f *fakeSigner) GetPublicURL(storagePath string) string {
	return "https://storage.example/public/" + storagePath
}

func (f *fakeSigner) DeleteFile(storagePath string) error {
	f.deleted = append(f.deleted, storagePath)
	return nil
}

func newMediaFixture(t *testing.T) (*MediaSlotAllocator, *fakeMediaStore, *fakeSigner, uuid.UUID) {
	t.Helper()
	owner := uuid.New()
	store := newFakeMediaStore(&models.Project{ID: uuid.New(), OwnerID: owner, Name: "fund"})
	signer := &fakeSigner{}
	return NewMediaSlotAllocator(store, signer), store, signer, owner
}

func confirmPath(projectID uuid.UUID, name string) string {
	return fmt.Sprintf("project-media/%s/%s", projectID, name)
}

func TestIssueUploadSlot_HappyPath(t *testing.T) {
	alloc, store, signer, owner := newMediaFixture(t)

	slot, err := alloc.IssueUploadSlot(store.project.ID, owner, "jpg")
	require.NoError(t, err)

	assert.Equal(t, 1, signer.signCalls)
	assert.NotEmpty(t, slot.UploadURL)
	assert.Equal(t, "signed-token", slot.Token)
	assert.True(t, strings.HasPrefix(slot.StoragePath, "project-media/"+store.project.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(slot.StoragePath, ".jpg"))
}

func TestIssueUploadSlot_NormalizesExtension(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	slot, err := alloc.IssueUploadSlot(store.project.ID, owner, ".PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(slot.StoragePath, ".png"))
}

func TestIssueUploadSlot_RejectsDisallowedExtension(t *testing.T) {
	alloc, store, signer, owner := newMediaFixture(t)

	for _, ext := range []string{"exe", "svg", "gif", ""} {
		_, err := alloc.IssueUploadSlot(store.project.ID, owner, ext)
		assert.ErrorIs(t, err, models.ErrValidation, "extension %q", ext)
	}
	assert.Equal(t, 0, signer.signCalls)
}

func TestIssueUploadSlot_Unauthorized(t *testing.T) {
	alloc, store, _, _ := newMediaFixture(t)

	_, err := alloc.IssueUploadSlot(store.project.ID, uuid.New(), "jpg")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestIssueUploadSlot_AdvisoryCapacityCheck(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	for i := 0; i < models.MaxMediaSlots; i++ {
		_, err := store.InsertMediaAt(store.project.ID, confirmPath(store.project.ID, fmt.Sprintf("%d.jpg", i)), i, "")
		require.NoError(t, err)
	}

	_, err := alloc.IssueUploadSlot(store.project.ID, owner, "jpg")
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
}

func TestConfirmUpload_AssignsLowestFreePosition(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	first, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "a.jpg"), "front")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, "front", first.AltText)

	second, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "b.jpg"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)
}

func TestConfirmUpload_RejectsForeignNamespace(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	otherProject := uuid.New()
	cases := []string{
		confirmPath(otherProject, "stolen.jpg"),
		"project-media/" + store.project.ID.String() + "/../escape.jpg",
		"somewhere-else/file.jpg",
	}

	for _, path := range cases {
		_, err := alloc.ConfirmUpload(store.project.ID, owner, path, "")
		assert.ErrorIs(t, err, models.ErrValidation, "path %q", path)
	}
}

func TestConfirmUpload_CapacityExceededWhenFull(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	for i := 0; i < models.MaxMediaSlots; i++ {
		_, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, fmt.Sprintf("%d.jpg", i)), "")
		require.NoError(t, err)
	}

	_, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "overflow.jpg"), "")
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
}

func TestConfirmUpload_ConcurrentConfirmsFillExactlyThreeSlots(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, fmt.Sprintf("c%d.jpg", i)), "")
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, models.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, attempts-models.MaxMediaSlots, failures)

	media, err := store.ListMedia(store.project.ID)
	require.NoError(t, err)
	require.Len(t, media, models.MaxMediaSlots)

	seen := make(map[int]bool)
	for _, m := range media {
		assert.GreaterOrEqual(t, m.Position, 0)
		assert.Less(t, m.Position, models.MaxMediaSlots)
		assert.False(t, seen[m.Position], "duplicate position %d", m.Position)
		seen[m.Position] = true
	}
}

func TestDeleteAttachment_FreesSlotWithoutRenumbering(t *testing.T) {
	alloc, store, signer, owner := newMediaFixture(t)

	var middle *models.MediaAttachment
	for i := 0; i < models.MaxMediaSlots; i++ {
		m, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, fmt.Sprintf("%d.jpg", i)), "")
		require.NoError(t, err)
		if m.Position == 1 {
			middle = m
		}
	}
	require.NotNil(t, middle)

	require.NoError(t, alloc.DeleteAttachment(store.project.ID, owner, middle.ID))
	assert.Equal(t, []string{middle.StoragePath}, signer.deleted)

	// Positions 0 and 2 keep their slots.
	media, err := store.ListMedia(store.project.ID)
	require.NoError(t, err)
	positions := make(map[int]bool)
	for _, m := range media {
		positions[m.Position] = true
	}
	assert.Equal(t, map[int]bool{0: true, 2: true}, positions)

	// The freed slot, and only it, is reused; no fourth row appears.
	replacement, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "new.jpg"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, replacement.Position)

	media, err = store.ListMedia(store.project.ID)
	require.NoError(t, err)
	assert.Len(t, media, models.MaxMediaSlots)
}

func TestDeleteAttachment_Unauthorized(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	m, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "a.jpg"), "")
	require.NoError(t, err)

	err = alloc.DeleteAttachment(store.project.ID, uuid.New(), m.ID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUpdateAltText(t *testing.T) {
	alloc, store, _, owner := newMediaFixture(t)

	m, err := alloc.ConfirmUpload(store.project.ID, owner, confirmPath(store.project.ID, "a.jpg"), "before")
	require.NoError(t, err)

	require.NoError(t, alloc.UpdateAltText(store.project.ID, owner, m.ID, "after"))

	updated, err := store.GetMedia(store.project.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.AltText)
}
