package assessment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/application"
	domain "meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
	"meridian/pkg/errors"
)

type fakeApps struct {
	app           *application.Application
	docs          []application.DocumentSummary
	docsErr       error
	statusUpdates []application.Status
}

func (f *fakeApps) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	if f.app == nil || f.app.ID != id {
		return nil, errors.Wrap(errors.ErrNotFound, "application not found")
	}
	return f.app, nil
}

func (f *fakeApps) ListDocumentSummaries(ctx context.Context, applicationID uuid.UUID) ([]application.DocumentSummary, error) {
	return f.docs, f.docsErr
}

func (f *fakeApps) UpdateStatus(ctx context.Context, id uuid.UUID, status application.Status) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeReports struct {
	created []*creditreport.Report
}

func (f *fakeReports) Create(ctx context.Context, report *creditreport.Report) error {
	f.created = append(f.created, report)
	return nil
}

func (f *fakeReports) GetLatestByApplication(ctx context.Context, applicationID uuid.UUID) (*creditreport.Report, error) {
	return nil, errors.Wrap(errors.ErrNotFound, "no report")
}

type fakeAssessments struct {
	created     *domain.Assessment
	completed   *domain.Assessment
	completeErr error
	failedID    uuid.UUID
	failedMsg   string
	scores      []domain.DimensionScore
}

func (f *fakeAssessments) CreateAttempt(ctx context.Context, a *domain.Assessment) error {
	a.AttemptNumber = 1
	a.Status = domain.StatusInProgress
	f.created = a
	return nil
}

func (f *fakeAssessments) Complete(ctx context.Context, a *domain.Assessment) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = a
	return nil
}

func (f *fakeAssessments) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	f.failedID = id
	f.failedMsg = errMsg
	return nil
}

func (f *fakeAssessments) SaveDimensionScores(ctx context.Context, scores []domain.DimensionScore) error {
	f.scores = scores
	return nil
}

func (f *fakeAssessments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	return nil, errors.Wrap(errors.ErrNotFound, "not found")
}

func (f *fakeAssessments) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Assessment, error) {
	return nil, nil
}

type fakeBureau struct {
	report *creditreport.Report
	err    error
	calls  int
}

func (f *fakeBureau) PullReport(snap *application.Snapshot) (*creditreport.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeCache struct {
	reports map[uuid.UUID]*creditreport.Report
	saved   int
}

func (f *fakeCache) Get(ctx context.Context, applicationID uuid.UUID) (*creditreport.Report, error) {
	if r, ok := f.reports[applicationID]; ok {
		return r, nil
	}
	return nil, errors.Wrap(errors.ErrNotFound, "not cached")
}

func (f *fakeCache) Save(ctx context.Context, report *creditreport.Report) error {
	if f.reports == nil {
		f.reports = make(map[uuid.UUID]*creditreport.Report)
	}
	f.reports[report.ApplicationID] = report
	f.saved++
	return nil
}

type fakePipeline struct {
	result     *domain.PipelineResult
	seenReport *creditreport.Report
	seenUseAI  bool
}

func (f *fakePipeline) Run(ctx context.Context, snap *application.Snapshot, report *creditreport.Report, useAI bool) *domain.PipelineResult {
	f.seenReport = report
	f.seenUseAI = useAI
	return f.result
}

type fakePublisher struct {
	started   int
	progress  int
	completed int
	failed    int
	servicer  int
}

func (f *fakePublisher) PublishAssessmentStarted(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, useAI bool) error {
	f.started++
	return nil
}

func (f *fakePublisher) PublishAssessmentProgress(ctx context.Context, applicationID, assessmentID uuid.UUID, result domain.DimensionResult) error {
	f.progress++
	return nil
}

func (f *fakePublisher) PublishAssessmentCompleted(ctx context.Context, applicationID, assessmentID uuid.UUID, res *domain.PipelineResult) error {
	f.completed++
	return nil
}

func (f *fakePublisher) PublishAssessmentFailed(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, cause string) error {
	f.failed++
	return nil
}

func (f *fakePublisher) PublishServicerNotification(ctx context.Context, applicationID, assessmentID uuid.UUID, res *domain.PipelineResult) error {
	f.servicer++
	return nil
}

func testApplication(status application.Status) *application.Application {
	return &application.Application{
		ID:             uuid.New(),
		Status:         status,
		PersonalInfo:   json.RawMessage(`{"first_name":"Ada","last_name":"Nguyen"}`),
		EmploymentInfo: json.RawMessage(`{"employment_status":"employed","annual_income":120000,"years_at_job":6}`),
		FinancialInfo:  json.RawMessage(`{"credit_score":720,"liquid_assets":95000}`),
		PropertyInfo:   json.RawMessage(`{"property_type":"single_family","purchase_price":400000}`),
		Declarations:   json.RawMessage(`{}`),
		LoanAmount:     decimal.NewFromInt(320000),
		DownPayment:    decimal.NewFromInt(80000),
		DTIRatio:       28,
		ProductName:    "30-Year Fixed",
		ProductType:    "conventional",
		TermMonths:     360,
		BaseRate:       6.5,
	}
}

func testPipelineResult() *domain.PipelineResult {
	return &domain.PipelineResult{
		OverallScore:   81.2,
		RiskBand:       domain.BandLow,
		Recommendation: domain.RecommendApprove,
		Summary:        "Strong applicant.",
		Confidence:     0.9,
		DimensionResults: []domain.DimensionResult{
			{Dimension: "credit_history", Score: 85, Weight: 0.12, Success: true},
			{Dimension: "financial_health", Score: 78, Weight: 0.15, Success: true},
		},
		AgentsSucceeded: 2,
		UsedAI:          true,
	}
}

type serviceFixture struct {
	apps        *fakeApps
	reports     *fakeReports
	assessments *fakeAssessments
	bureau      *fakeBureau
	cache       *fakeCache
	pipeline    *fakePipeline
	publisher   *fakePublisher
	svc         *Service
}

func newFixture(app *application.Application) *serviceFixture {
	f := &serviceFixture{
		apps:        &fakeApps{app: app},
		reports:     &fakeReports{},
		assessments: &fakeAssessments{},
		bureau: &fakeBureau{report: &creditreport.Report{
			ID: uuid.New(), ApplicationID: app.ID, Score: 705,
		}},
		cache:     &fakeCache{},
		pipeline:  &fakePipeline{result: testPipelineResult()},
		publisher: &fakePublisher{},
	}
	f.svc = NewService(f.apps, f.reports, f.assessments, f.bureau, f.cache, f.pipeline, f.publisher)
	return f
}

func TestRunHappyPath(t *testing.T) {
	app := testApplication(application.StatusSubmitted)
	f := newFixture(app)

	attempt, err := f.svc.Run(context.Background(), app.ID, true)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, attempt.Status)
	assert.Equal(t, 81.2, attempt.OverallScore)
	assert.Equal(t, domain.BandLow, attempt.RiskBand)
	assert.Equal(t, 1, attempt.AttemptNumber)
	require.NotNil(t, attempt.CompletedAt)

	// Report was pulled, persisted, cached, and fed to the pipeline.
	assert.Equal(t, 1, f.bureau.calls)
	assert.Len(t, f.reports.created, 1)
	assert.Equal(t, 1, f.cache.saved)
	require.NotNil(t, f.pipeline.seenReport)
	assert.Equal(t, 705, f.pipeline.seenReport.Score)
	assert.True(t, f.pipeline.seenUseAI)

	// Outcome persisted with per-dimension rows.
	require.NotNil(t, f.assessments.completed)
	assert.Len(t, f.assessments.scores, 2)
	assert.Equal(t, attempt.ID, f.assessments.scores[0].AssessmentID)

	// Submitted application moves into review.
	assert.Equal(t, []application.Status{application.StatusUnderReview}, f.apps.statusUpdates)

	// Full event lifecycle.
	assert.Equal(t, 1, f.publisher.started)
	assert.Equal(t, 2, f.publisher.progress)
	assert.Equal(t, 1, f.publisher.completed)
	assert.Equal(t, 1, f.publisher.servicer)
	assert.Zero(t, f.publisher.failed)
}

func TestRunRejectsUnassessableStatus(t *testing.T) {
	for _, status := range []application.Status{
		application.StatusDraft, application.StatusApproved,
		application.StatusDenied, application.StatusWithdrawn,
	} {
		app := testApplication(status)
		f := newFixture(app)

		_, err := f.svc.Run(context.Background(), app.ID, true)
		assert.True(t, errors.Is(err, errors.ErrApplicationNotAssessable), "status %s", status)
		assert.Nil(t, f.assessments.created)
	}
}

func TestRunUnderReviewIsReassessable(t *testing.T) {
	app := testApplication(application.StatusUnderReview)
	f := newFixture(app)

	_, err := f.svc.Run(context.Background(), app.ID, true)
	require.NoError(t, err)

	// Already under review, so no further status transition.
	assert.Empty(t, f.apps.statusUpdates)
}

func TestRunBureauFailureAssessesWithoutReport(t *testing.T) {
	app := testApplication(application.StatusSubmitted)
	f := newFixture(app)
	f.bureau.report = nil
	f.bureau.err = errors.ErrBureauUnavailable

	attempt, err := f.svc.Run(context.Background(), app.ID, false)
	require.NoError(t, err)

	assert.Nil(t, f.pipeline.seenReport)
	assert.Empty(t, f.reports.created)
	assert.Equal(t, domain.StatusCompleted, attempt.Status)
}

func TestRunUsesCachedReport(t *testing.T) {
	app := testApplication(application.StatusSubmitted)
	f := newFixture(app)

	cached := &creditreport.Report{ID: uuid.New(), ApplicationID: app.ID, Score: 650}
	f.cache.reports = map[uuid.UUID]*creditreport.Report{app.ID: cached}

	_, err := f.svc.Run(context.Background(), app.ID, true)
	require.NoError(t, err)

	assert.Zero(t, f.bureau.calls)
	require.NotNil(t, f.pipeline.seenReport)
	assert.Equal(t, 650, f.pipeline.seenReport.Score)
}

func TestRunPersistenceFailureMarksAttemptFailed(t *testing.T) {
	app := testApplication(application.StatusSubmitted)
	f := newFixture(app)
	f.assessments.completeErr = assert.AnError

	_, err := f.svc.Run(context.Background(), app.ID, true)
	require.Error(t, err)

	assert.Equal(t, f.assessments.created.ID, f.assessments.failedID)
	assert.NotEmpty(t, f.assessments.failedMsg)
	assert.Equal(t, 1, f.publisher.failed)
	assert.Zero(t, f.publisher.completed)
}

func TestRunDocumentLoadFailureContinues(t *testing.T) {
	app := testApplication(application.StatusSubmitted)
	f := newFixture(app)
	f.apps.docsErr = assert.AnError

	attempt, err := f.svc.Run(context.Background(), app.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, attempt.Status)
}
