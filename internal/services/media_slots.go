package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fundraising-backend/internal/models"
)

// MediaStore is the subset of the database client the allocator needs.
type MediaStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	CountMedia(projectID uuid.UUID) (int, error)
	ListMedia(projectID uuid.UUID) ([]models.MediaAttachment, error)
	InsertMediaAt(projectID uuid.UUID, storagePath string, position int, altText string) (*models.MediaAttachment, error)
	GetMedia(projectID, mediaID uuid.UUID) (*models.MediaAttachment, error)
	DeleteMedia(projectID, mediaID uuid.UUID) error
	UpdateMediaAltText(projectID, mediaID uuid.UUID, altText string) error
}

// UploadSigner issues signed upload URLs and derives public display
// URLs; file bytes never pass through this service.
type UploadSigner interface {
	SignUploadURL(storagePath string) (uploadURL, token string, expiresAt time.Time, err error)
	GetPublicURL(storagePath string) string
	DeleteFile(storagePath string) error
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

type UploadSlot struct {
	UploadURL   string
	StoragePath string
	Token       string
	ExpiresAt   time.Time
}

// MediaSlotAllocator manages the bounded set of media attachments per
// project through a two-phase protocol: issue a signed upload URL,
// then confirm the upload into the lowest free position slot.
type MediaSlotAllocator struct {
	store  MediaStore
	signer UploadSigner
}

func NewMediaSlotAllocator(store MediaStore, signer UploadSigner) *MediaSlotAllocator {
	return &MediaSlotAllocator{
		store:  store,
		signer: signer,
	}
}

func (a *MediaSlotAllocator) authorize(projectID, requesterID uuid.UUID) (*models.Project, error) {
	project, err := a.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: requester does not own project", models.ErrUnauthorized)
	}
	return project, nil
}

// IssueUploadSlot validates ownership, extension, and (advisorily)
// capacity, then signs an upload URL for a path namespaced under the
// project. The capacity check here only saves the client a wasted
// upload; the authoritative check happens at confirmation.
func (a *MediaSlotAllocator) IssueUploadSlot(projectID, requesterID uuid.UUID, fileExtension string) (*UploadSlot, error) {
	if _, err := a.authorize(projectID, requesterID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(fileExtension, "."))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: extension %q not allowed", models.ErrValidation, fileExtension)
	}

	count, err := a.store.CountMedia(projectID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxMediaSlots {
		return nil, fmt.Errorf("%w: project already has %d media attachments", models.ErrCapacityExceeded, models.MaxMediaSlots)
	}

	storagePath := fmt.Sprintf("project-media/%s/%s.%s", projectID, uuid.New(), ext)

	uploadURL, token, expiresAt, err := a.signer.SignUploadURL(storagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalService, err)
	}

	return &UploadSlot{
		UploadURL:   uploadURL,
		StoragePath: storagePath,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

// ConfirmUpload records an uploaded object as an attachment at the
// lowest free position. Position assignment relies on the store's
// (project_id, position) uniqueness constraint: a conflict means a
// concurrent confirm took the slot, so the next candidate is tried, at
// most once per slot. Exhausting all slots is the authoritative
// capacity failure.
func (a *MediaSlotAllocator) ConfirmUpload(projectID, requesterID uuid.UUID, storagePath, altText string) (*models.MediaAttachment, error) {
	if _, err := a.authorize(projectID, requesterID); err != nil {
		return nil, err
	}

	// A forged path could otherwise attach another project's object.
	prefix := fmt.Sprintf("project-media/%s/", projectID)
	if !strings.HasPrefix(storagePath, prefix) || strings.Contains(storagePath, "..") {
		return nil, fmt.Errorf("%w: storage path not under project namespace", models.ErrValidation)
	}

	media, err := a.store.ListMedia(projectID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(media))
	for _, m := range media {
		taken[m.Position] = true
	}

	for position := 0; position < models.MaxMediaSlots; position++ {
		if taken[position] {
			continue
		}
		attachment, err := a.store.InsertMediaAt(projectID, storagePath, position, altText)
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return attachment, nil
	}

	return nil, fmt.Errorf("%w: all %d media slots are taken", models.ErrCapacityExceeded, models.MaxMediaSlots)
}

// DeleteAttachment removes the row and the stored object. Remaining
// attachments keep their positions; the freed slot is reused by the
// next confirm.
func (a *MediaSlotAllocator) DeleteAttachment(projectID, requesterID, mediaID uuid.UUID) error {
	if _, err := a.authorize(projectID, requesterID); err != nil {
		return err
	}

	attachment, err := a.store.GetMedia(projectID, mediaID)
	if err != nil {
		return err
	}

	if err := a.store.DeleteMedia(projectID, mediaID); err != nil {
		return err
	}

	if err := a.signer.DeleteFile(attachment.StoragePath); err != nil {
		// Row is gone; an orphaned object is tolerable.
		log.Printf("Warning: failed to delete storage object %s: %v", attachment.StoragePath, err)
	}

	return nil
}

func (a *MediaSlotAllocator) UpdateAltText(projectID, requesterID, mediaID uuid.UUID, altText string) error {
	if _, err := a.authorize(projectID, requesterID); err != nil {
		return err
	}
	return a.store.UpdateMediaAltText(projectID, mediaID, altText)
}

// ListAttachments returns the project's attachments in position order
// with display URLs derived from their storage paths.
func (a *MediaSlotAllocator) ListAttachments(projectID uuid.UUID) ([]models.MediaAttachment, error) {
	return a.store.ListMedia(projectID)
}

func (a *MediaSlotAllocator) PublicURL(storagePath string) string {
	return a.signer.GetPublicURL(storagePath)
}
