package treatment

import (
	"context"
	"testing"
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTreatment(t *testing.T, repo Repository, patientID uint, start time.Time, regimen model.Regimen) *model.Treatment {
	t.Helper()
	plan := schedule.Compute(start, regimen)
	tr := &model.Treatment{
		PatientID:       patientID,
		DiagnosisID:     1,
		Regimen:         regimen,
		StartDate:       start,
		ExpectedEndDate: plan.ExpectedEndDate,
		Status:          model.StatusOngoing,
		VisitSchedule:   plan.VisitDates,
	}
	require.NoError(t, repo.Create(context.Background(), tr))
	return tr
}

func TestGormRepository_CreateAndGet(t *testing.T) {
	repo := NewGormRepository(setupTestDB(t))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := seedTreatment(t, repo, 1, start, model.RegimenFirstLine)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegimenFirstLine, got.Regimen)
	require.Len(t, got.VisitSchedule, 5)
	assert.Equal(t, "2024-01-15", schedule.Key(got.VisitSchedule[0]))
	assert.Equal(t, "2024-06-29", schedule.Key(got.ExpectedEndDate))
	assert.False(t, got.Archived)

	_, err = repo.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, "treatment 9999 not found", apperr.Message(err))
}

func TestGormRepository_FollowUpsKeepRecordingOrder(t *testing.T) {
	repo := NewGormRepository(setupTestDB(t))
	tr := seedTreatment(t, repo, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), model.RegimenFirstLine)
	date := tr.VisitSchedule[0]

	for _, status := range []model.FollowUpStatus{model.FollowUpMissed, model.FollowUpCompleted} {
		require.NoError(t, repo.AppendFollowUp(context.Background(), &model.FollowUp{
			TreatmentID: tr.ID,
			VisitDate:   date,
			Status:      status,
			RecordedBy:  3,
		}))
	}

	got, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Len(t, got.FollowUps, 2)
	assert.Equal(t, model.FollowUpMissed, got.FollowUps[0].Status)
	assert.Equal(t, model.FollowUpCompleted, got.FollowUps[1].Status)

	entries, err := repo.ListFollowUps(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGormRepository_SaveDoesNotTouchFollowUps(t *testing.T) {
	repo := NewGormRepository(setupTestDB(t))
	tr := seedTreatment(t, repo, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), model.RegimenFirstLine)
	require.NoError(t, repo.AppendFollowUp(context.Background(), &model.FollowUp{
		TreatmentID: tr.ID, VisitDate: tr.VisitSchedule[0], Status: model.FollowUpCompleted,
	}))

	got, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	got.Archived = true
	got.FollowUps = nil
	require.NoError(t, repo.Save(context.Background(), got))

	again, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.True(t, again.Archived)
	assert.Len(t, again.FollowUps, 1)
}

func TestGormRepository_ListFilters(t *testing.T) {
	repo := NewGormRepository(setupTestDB(t))
	ctx := context.Background()
	a := seedTreatment(t, repo, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), model.RegimenFirstLine)
	b := seedTreatment(t, repo, 1, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), model.RegimenMDR)
	c := seedTreatment(t, repo, 2, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), model.RegimenOther)
	c.Archived = true
	require.NoError(t, repo.Save(ctx, c))

	all, total, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest start date first")
	assert.Equal(t, a.ID, all[1].ID)

	pid := uint(2)
	byPatient, total, err := repo.List(ctx, ListFilter{PatientID: &pid, IncludeArchived: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c.ID, byPatient[0].ID)

	mdr, _, err := repo.List(ctx, ListFilter{Regimen: model.RegimenMDR})
	require.NoError(t, err)
	require.Len(t, mdr, 1)
	assert.Equal(t, b.ID, mdr[0].ID)

	page, total, err := repo.List(ctx, ListFilter{IncludeArchived: true, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, c.ID, page[0].ID)
}

func TestGormLookupsAndAppointments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	userID := uint(42)
	p := model.Patient{PatientCode: "P-100", FullName: "Dewi Lestari", UserID: &userID}
	require.NoError(t, db.Create(&p).Error)
	d := model.Diagnosis{PatientID: p.ID, Type: "Pulmonary TB", DiagnosedAt: time.Now()}
	require.NoError(t, db.Create(&d).Error)

	patients := NewGormPatientLookup(db)
	got, err := patients.FindPatientByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "P-100", got.PatientCode)
	byUser, err := patients.FindPatientByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byUser.ID)
	_, err = patients.FindPatientByUserID(ctx, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	diagnoses := NewGormDiagnosisLookup(db)
	gotD, err := diagnoses.FindDiagnosisByID(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, gotD.IsConfirmedTB())
	_, err = diagnoses.FindDiagnosisByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	appts := NewGormAppointmentScheduler(db, AppointmentSlot{Start: "08:30", Duration: 45 * time.Minute})
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	appt, err := appts.CreateAppointment(ctx, AppointmentRequest{PatientID: p.ID, TreatmentID: 5, Date: date, CreatedBy: 9})
	require.NoError(t, err)
	assert.NotEmpty(t, appt.Reference)
	assert.Equal(t, "08:30", appt.StartTime)
	assert.Equal(t, "09:15", appt.EndTime)
	assert.Equal(t, "scheduled", appt.Status)

	var count int64
	require.NoError(t, db.Model(&model.Appointment{}).Where("treatment_id = ?", 5).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
