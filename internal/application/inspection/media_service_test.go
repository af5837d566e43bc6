package inspection

import (
	"context"
	"strings"
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMediaService(t *testing.T) (*MediaService, *MockRepository, *MockItemRepository, *MockEvidenceRepository, *storage.MemoryObjectStorage) {
	t.Helper()
	repo := new(MockRepository)
	items := new(MockItemRepository)
	evidence := new(MockEvidenceRepository)
	objects := storage.NewMemoryObjectStorage()
	return NewMediaService(repo, items, evidence, objects, zap.NewNop()), repo, items, evidence, objects
}

func TestMediaService_UploadAndRegister(t *testing.T) {
	svc, repo, _, evidence, objects := newMediaService(t)
	ctx := context.Background()
	orgID := uuid.New()
	insp := newInspection(t, orgID)
	repo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
	evidence.On("SaveMedia", mock.Anything, mock.AnythingOfType("*inspection.Media")).Return(nil)
	scope := identity.NewAccessScope(uuid.New(), orgID, identity.RoleInspector, nil)

	upload, err := svc.UploadURL(ctx, scope, insp.ID, UploadURLInput{
		FileName:    "Extintor Vencido.JPG",
		ContentType: "image/jpeg",
		Size:        2048,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(upload.StorageKey, "-Extintor_Vencido.JPG"))
	assert.Contains(t, upload.UploadURL, upload.StorageKey)

	register := RegisterMediaInput{
		StorageKey:  upload.StorageKey,
		FileName:    "Extintor Vencido.JPG",
		ContentType: "image/jpeg",
		Size:        2048,
		Description: " Corredor B ",
	}
	_, err = svc.Register(ctx, scope, insp.ID, register)
	assert.ErrorIs(t, err, ErrMediaNotUploaded)

	require.NoError(t, objects.Put(ctx, upload.StorageKey, []byte("jpeg"), "image/jpeg"))
	m, err := svc.Register(ctx, scope, insp.ID, register)
	require.NoError(t, err)
	assert.Equal(t, inspection.MediaTypeImage, m.Type)
	assert.Equal(t, "Extintor_Vencido.JPG", m.FileName)
	assert.Equal(t, "Corredor B", m.Description)
	assert.Equal(t, scope.UserID, m.UploadedBy)
	evidence.AssertNumberOfCalls(t, "SaveMedia", 1)
}

func TestMediaService_UploadURL_Validation(t *testing.T) {
	svc, repo, items, _, _ := newMediaService(t)
	orgID := uuid.New()
	insp := newInspection(t, orgID)
	otherItem := newItem(t, newInspection(t, orgID), "Outro", false, 0)
	repo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
	items.On("FindByID", mock.Anything, otherItem.ID).Return(&otherItem, nil)
	scope := identity.NewAccessScope(uuid.New(), orgID, identity.RoleInspector, nil)

	_, err := svc.UploadURL(context.Background(), scope, insp.ID, UploadURLInput{
		FileName: "video.mp4", ContentType: "video/mp4", Size: inspection.MaxMediaSize + 1,
	})
	assertCode(t, err, "MEDIA_TOO_LARGE")

	_, err = svc.UploadURL(context.Background(), scope, insp.ID, UploadURLInput{
		ItemID: &otherItem.ID, FileName: "a.jpg", ContentType: "image/jpeg", Size: 10,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	client := identity.NewAccessScope(uuid.New(), orgID, identity.RoleClient, nil)
	_, err = svc.UploadURL(context.Background(), client, insp.ID, UploadURLInput{FileName: "a.jpg", Size: 10})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestMediaService_Register_ForeignKey(t *testing.T) {
	svc, repo, _, _, _ := newMediaService(t)
	orgID := uuid.New()
	insp := newInspection(t, orgID)
	repo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
	scope := identity.NewAccessScope(uuid.New(), orgID, identity.RoleInspector, nil)

	otherInspection := storage.MediaKey(orgID, uuid.New(), uuid.New(), "a.jpg")
	_, err := svc.Register(context.Background(), scope, insp.ID, RegisterMediaInput{
		StorageKey: otherInspection, FileName: "a.jpg", ContentType: "image/jpeg", Size: 10,
	})

	assertCode(t, err, "INVALID_MEDIA")
}

func TestMediaService_DownloadAndDelete(t *testing.T) {
	svc, repo, _, evidence, objects := newMediaService(t)
	ctx := context.Background()
	orgID := uuid.New()
	insp := newInspection(t, orgID)
	m, err := inspection.NewMedia(insp, nil, "laudo.pdf", "application/pdf", 100, uuid.New())
	require.NoError(t, err)
	m.StorageKey = storage.MediaKey(orgID, insp.ID, m.ID, m.FileName)
	require.NoError(t, objects.Put(ctx, m.StorageKey, []byte("%PDF"), "application/pdf"))

	repo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
	evidence.On("FindMediaByID", mock.Anything, m.ID).Return(m, nil)
	evidence.On("DeleteMedia", mock.Anything, m.ID).Return(nil)

	outsider := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleManager, nil)
	_, err = svc.DownloadURL(ctx, outsider, m.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	client := identity.NewAccessScope(uuid.New(), orgID, identity.RoleClient, nil)
	dl, err := svc.DownloadURL(ctx, client, m.ID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, m.StorageKey)

	manager := identity.NewAccessScope(uuid.New(), orgID, identity.RoleManager, nil)
	require.NoError(t, svc.Delete(ctx, manager, m.ID))
	exists, err := objects.Exists(ctx, m.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
}
