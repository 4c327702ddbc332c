package supabase

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

// signedUploadTTL matches the Supabase storage default for signed
// upload URLs.
const signedUploadTTL = 2 * time.Hour

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
	timeout time.Duration

	sign func(bucket, path string) (storage.SignedUploadUrlResponse, error)
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string, timeout time.Duration) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		timeout: timeout,
		sign:    client.CreateSignedUploadUrl,
	}, nil
}

// SignUploadURL issues a short-lived URL that lets the client PUT the
// object bytes directly to storage without routing them through this
// server. The storage library's HTTP session carries no timeout of its
// own, so the signing call gets a deadline here.
func (s *StorageClient) SignUploadURL(storagePath string) (uploadURL, token string, expiresAt time.Time, err error) {
	type signed struct {
		resp storage.SignedUploadUrlResponse
		err  error
	}
	done := make(chan signed, 1)
	go func() {
		resp, err := s.sign(s.bucket, storagePath)
		done <- signed{resp: resp, err: err}
	}()

	var resp storage.SignedUploadUrlResponse
	select {
	case r := <-done:
		if r.err != nil {
			return "", "", time.Time{}, fmt.Errorf("failed to create signed upload url: %w", r.err)
		}
		resp = r.resp
	case <-time.After(s.timeout):
		return "", "", time.Time{}, fmt.Errorf("signed upload url request timed out after %s", s.timeout)
	}

	uploadURL = resp.Url
	if !strings.HasPrefix(uploadURL, "http") {
		uploadURL = s.baseURL + "/storage/v1" + resp.Url
	}

	if parsed, perr := url.Parse(uploadURL); perr == nil {
		token = parsed.Query().Get("token")
	}

	return uploadURL, token, time.Now().Add(signedUploadTTL), nil
}

// GetPublicURL derives the display URL from the storage path. Full
// URLs are never persisted; only paths are.
func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteProjectMedia removes every object under the project's media
// prefix, confirmed or not. This is the only cleanup path for orphaned
// unconfirmed uploads.
func (s *StorageClient) DeleteProjectMedia(projectID string) error {
	prefix := fmt.Sprintf("project-media/%s/", projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 100,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		paths := make([]string, len(files))
		for i, file := range files {
			paths[i] = file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}
