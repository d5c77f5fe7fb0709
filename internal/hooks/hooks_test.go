package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	job "github.com/notAlamaD/tiktoc-autoposting/internal/jobs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

type stubQueueRepo struct {
	jobs   map[int64]*models.QueueJob
	nextID int64
}

func newStubQueueRepo() *stubQueueRepo {
	return &stubQueueRepo{jobs: map[int64]*models.QueueJob{}}
}

func (s *stubQueueRepo) Enqueue(ctx context.Context, contentID int64) (int64, error) {
	s.nextID++
	s.jobs[s.nextID] = &models.QueueJob{
		ID:        s.nextID,
		ContentID: contentID,
		Status:    models.QueueStatusPending,
		CreatedAt: time.Now(),
	}
	return s.nextID, nil
}

func (s *stubQueueRepo) GetByID(ctx context.Context, id int64) (*models.QueueJob, error) {
	return s.jobs[id], nil
}

func (s *stubQueueRepo) GetPending(ctx context.Context, limit int) ([]*models.QueueJob, error) {
	return nil, nil
}

func (s *stubQueueRepo) GetRecent(ctx context.Context, limit int) ([]*models.QueueJob, error) {
	return nil, nil
}

func (s *stubQueueRepo) Update(ctx context.Context, id int64, u *models.QueueJobUpdate) error {
	j := s.jobs[id]
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Attempts != nil {
		j.Attempts = *u.Attempts
	}
	if u.LastError != nil {
		j.LastError = *u.LastError
	}
	if u.TiktokPostID != nil {
		j.TiktokPostID = *u.TiktokPostID
	}
	return nil
}

func (s *stubQueueRepo) Delete(ctx context.Context, id int64) error {
	delete(s.jobs, id)
	return nil
}

type stubRecordRepo struct {
	records map[int64]*models.PublishRecord
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{records: map[int64]*models.PublishRecord{}}
}

func (s *stubRecordRepo) Ensure(ctx context.Context, contentID int64) (*models.PublishRecord, error) {
	if rec, ok := s.records[contentID]; ok {
		return rec, nil
	}
	s.records[contentID] = &models.PublishRecord{ContentID: contentID, Status: models.RecordStatusPending}
	return s.records[contentID], nil
}

func (s *stubRecordRepo) GetByID(ctx context.Context, id int64) (*models.PublishRecord, error) {
	return s.GetByContent(ctx, id)
}

func (s *stubRecordRepo) GetByContent(ctx context.Context, contentID int64) (*models.PublishRecord, error) {
	return s.records[contentID], nil
}

func (s *stubRecordRepo) GetRecent(ctx context.Context, limit int) ([]*models.PublishRecord, error) {
	return nil, nil
}

func (s *stubRecordRepo) MarkPending(ctx context.Context, contentID int64) error {
	s.Ensure(ctx, contentID)
	s.records[contentID].Status = models.RecordStatusPending
	return nil
}

func (s *stubRecordRepo) MarkRetrying(ctx context.Context, contentID int64, message string, attempt int) error {
	s.Ensure(ctx, contentID)
	rec := s.records[contentID]
	rec.Status = models.RecordStatusPending
	rec.LastError = message
	rec.Attempts = attempt
	return nil
}

func (s *stubRecordRepo) MarkProcessing(ctx context.Context, contentID int64, attempt int) error {
	s.Ensure(ctx, contentID)
	s.records[contentID].Status = models.RecordStatusProcessing
	s.records[contentID].Attempts = attempt
	return nil
}

func (s *stubRecordRepo) MarkPublished(ctx context.Context, contentID int64, tiktokPostID string, attempt int) error {
	s.Ensure(ctx, contentID)
	rec := s.records[contentID]
	rec.Status = models.RecordStatusPublished
	rec.TiktokPostID = tiktokPostID
	rec.Attempts = attempt
	return nil
}

func (s *stubRecordRepo) MarkError(ctx context.Context, contentID int64, message string, attempt int) error {
	s.Ensure(ctx, contentID)
	rec := s.records[contentID]
	rec.Status = models.RecordStatusError
	rec.LastError = message
	rec.Attempts = attempt
	return nil
}

type stubContentRepo struct {
	items map[int64]*models.ContentItem
}

func (s *stubContentRepo) GetByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	return s.items[id], nil
}

func (s *stubContentRepo) GetRecentPublished(ctx context.Context, limit int) ([]*models.ContentItem, error) {
	return nil, nil
}

type stubTiktok struct {
	publishErr   error
	publishCalls int
}

func (s *stubTiktok) AuthorizeURL(state string) string { return "" }

func (s *stubTiktok) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	return nil, nil
}

func (s *stubTiktok) RefreshToken(ctx context.Context) (*models.Token, error) { return nil, nil }

func (s *stubTiktok) GetUserInfo(ctx context.Context) (*transfer.TiktokUser, error) {
	return nil, nil
}

func (s *stubTiktok) QueryCreatorInfo(ctx context.Context) (*transfer.TiktokCreatorInfo, error) {
	canPost := true
	return &transfer.TiktokCreatorInfo{CanPost: &canPost}, nil
}

func (s *stubTiktok) PublishContent(ctx context.Context, content *models.ContentItem, mediaPath, description, postMode, privacyLevel string) (*transfer.TiktokPublishData, error) {
	s.publishCalls++
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	return &transfer.TiktokPublishData{PostID: "7788"}, nil
}

func (s *stubTiktok) UploadMedia(ctx context.Context, mediaPath, mediaType string) (string, error) {
	return "", nil
}

func (s *stubTiktok) CreatePost(ctx context.Context, mediaID, description string) (*transfer.TiktokPublishData, error) {
	return nil, nil
}

type stubMedia struct {
	path string
}

func (s *stubMedia) Resolve(ctx context.Context, content *models.ContentItem, source string) (string, error) {
	return s.path, nil
}

func (s *stubMedia) RenderDescription(content *models.ContentItem, template string) string {
	return template
}

func (s *stubMedia) PublicMediaURL(pathOrURL string) string { return s.path }

func (s *stubMedia) EnsurePublicURL(ctx context.Context, pathOrURL string) (string, error) {
	return s.path, nil
}

func (s *stubMedia) DetectMediaType(pathOrURL string) string { return "VIDEO" }

func (s *stubMedia) Duration(path string) (int, bool) { return 0, false }

type stubSettings struct {
	settings *models.Settings
}

func (s *stubSettings) Get(ctx context.Context) (*models.Settings, error) { return s.settings, nil }

func (s *stubSettings) Update(ctx context.Context, in *models.Settings) error { return nil }

func (s *stubSettings) LoggingEnabled(ctx context.Context) bool { return false }

func (s *stubSettings) OnIntervalChange(fn func(minutes int)) {}

type observerFixture struct {
	qr *stubQueueRepo
	pr *stubRecordRepo
	tt *stubTiktok
	st *stubSettings
	ob *Observer
}

func newObserverFixture() *observerFixture {
	qr := newStubQueueRepo()
	pr := newStubRecordRepo()
	cr := &stubContentRepo{items: map[int64]*models.ContentItem{
		101: {ID: 101, Title: "First Post", ContentType: "post"},
	}}
	tt := &stubTiktok{}
	media := &stubMedia{path: "https://cdn.example.com/clip.mp4"}
	st := &stubSettings{settings: &models.Settings{
		AutoPostEnabled: true,
		PostTypes:       "post",
		Statuses:        "publish",
		MediaSource:     models.MediaSourceFeatured,
		Description:     "{post_title}",
		PostMode:        models.PostModeDirect,
		QueueEnabled:    true,
	}}

	pj := job.NewPublishJob(qr, pr, cr, tt, media, st)

	return &observerFixture{
		qr: qr,
		pr: pr,
		tt: tt,
		st: st,
		ob: NewObserver(qr, pr, st, media, pj),
	}
}

func publishedContent() *models.ContentItem {
	return &models.ContentItem{ID: 101, Title: "First Post", ContentType: "post", Status: "publish"}
}

func TestObserver_EnqueuesOnTransitionIntoTarget(t *testing.T) {
	fx := newObserverFixture()

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "publish")

	require.Len(t, fx.qr.jobs, 1)
	require.Equal(t, models.QueueStatusPending, fx.qr.jobs[1].Status)
	require.Equal(t, int64(101), fx.qr.jobs[1].ContentID)
	require.Equal(t, 0, fx.tt.publishCalls)
	require.NotNil(t, fx.pr.records[101])
}

func TestObserver_NoFireOnRepeatedStatus(t *testing.T) {
	fx := newObserverFixture()

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "publish", "publish")

	require.Empty(t, fx.qr.jobs)
}

func TestObserver_NoFireWhenDisabled(t *testing.T) {
	fx := newObserverFixture()
	fx.st.settings.AutoPostEnabled = false

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "publish")

	require.Empty(t, fx.qr.jobs)
}

func TestObserver_NoFireForUnlistedType(t *testing.T) {
	fx := newObserverFixture()

	content := publishedContent()
	content.ContentType = "page"
	fx.ob.OnContentTransition(context.Background(), content, "draft", "publish")

	require.Empty(t, fx.qr.jobs)
}

func TestObserver_NoFireForUnlistedStatus(t *testing.T) {
	fx := newObserverFixture()

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "private")

	require.Empty(t, fx.qr.jobs)
}

func TestObserver_NoFireWithoutMedia(t *testing.T) {
	fx := newObserverFixture()
	fx.ob.ms.(*stubMedia).path = ""

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "publish")

	require.Empty(t, fx.qr.jobs)
}

func TestObserver_ImmediateModePublishesAndRecordsAudit(t *testing.T) {
	fx := newObserverFixture()
	fx.st.settings.QueueEnabled = false

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "publish")

	require.Equal(t, 1, fx.tt.publishCalls)
	require.Len(t, fx.qr.jobs, 1)

	audit := fx.qr.jobs[1]
	require.Equal(t, models.QueueStatusSuccess, audit.Status)
	require.Equal(t, 1, audit.Attempts)
	require.Equal(t, "7788", audit.TiktokPostID)

	require.Equal(t, models.RecordStatusPublished, fx.pr.records[101].Status)
}

func TestObserver_ImmediateModeRecordsFailure(t *testing.T) {
	fx := newObserverFixture()
	fx.st.settings.QueueEnabled = false
	fx.tt.publishErr = errAPITest{}

	fx.ob.OnContentTransition(context.Background(), publishedContent(), "draft", "publish")

	require.Len(t, fx.qr.jobs, 1)
	audit := fx.qr.jobs[1]
	require.Equal(t, models.QueueStatusError, audit.Status)
	require.Equal(t, 1, audit.Attempts)
	require.NotEmpty(t, audit.LastError)
}

type errAPITest struct{}

func (errAPITest) Error() string { return "remote rejected the post" }
