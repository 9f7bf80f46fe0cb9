package endpoint

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ariebrainware/tbcare/adherence"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/middleware"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/treatment"
	"github.com/ariebrainware/tbcare/visit"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testSecret = []byte("endpoint-test-secret")

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func uintPtr(v uint) *uint { return &v }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_endpoint_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(model.Models()...); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}
	return db
}

// newTestEnv seeds two linked patients, one confirmed TB diagnosis each and a
// negative diagnosis for patient 1, and builds the full router over them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	require.NoError(t, db.Create(&[]model.Patient{
		{Model: gorm.Model{ID: 1}, PatientCode: "P-001", FullName: "Siti Rahma", UserID: uintPtr(100)},
		{Model: gorm.Model{ID: 2}, PatientCode: "P-002", FullName: "Budi Santoso", UserID: uintPtr(200)},
	}).Error)
	require.NoError(t, db.Create(&[]model.Diagnosis{
		{Model: gorm.Model{ID: 10}, PatientID: 1, Type: "Pulmonary TB"},
		{Model: gorm.Model{ID: 11}, PatientID: 1, Type: model.DiagnosisNoTB},
		{Model: gorm.Model{ID: 20}, PatientID: 2, Type: "Extrapulmonary TB"},
	}).Error)

	log := zerolog.Nop()
	repo := treatment.NewGormRepository(db)
	treatments := treatment.NewService(
		repo,
		treatment.NewGormPatientLookup(db),
		treatment.NewGormDiagnosisLookup(db),
		treatment.NewGormAppointmentScheduler(db, treatment.AppointmentSlot{}),
		log,
	)
	adh := adherence.NewService(repo, nil, time.Minute, log)
	tracker := visit.NewTracker(repo, log)
	tracker.SetInvalidator(adh)
	tracker.SetClock(func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) })

	authz, err := authorize.New()
	require.NoError(t, err)

	router := NewRouter(NewHandler(treatments, tracker, adh, log), authz, RouterOptions{
		JWTSecret: testSecret,
		Logger:    log,
	})
	return &testEnv{router: router, db: db}
}

func tokenFor(t *testing.T, userID uint, role authorize.Role) map[string]string {
	t.Helper()
	token, err := middleware.GenerateToken(testSecret, authorize.Actor{UserID: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func doctor(t *testing.T) map[string]string { return tokenFor(t, 3, authorize.RoleDoctor) }

func (e *testEnv) call(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	w, resp, err := performRequest(e.router, requestSpec{
		method:      method,
		requestPath: path,
		body:        body,
		headers:     headers,
	})
	require.NoError(t, err)
	return w.Code, resp
}

// createTreatment creates a 2HRZE/4HR course starting 2024-01-01 and returns its id.
func (e *testEnv) createTreatment(t *testing.T, patientID, diagnosisID uint) uint {
	t.Helper()
	code, resp := e.call(t, http.MethodPost, "/treatment", map[string]interface{}{
		"patient_id":   patientID,
		"diagnosis_id": diagnosisID,
		"regimen":      "2HRZE/4HR",
		"start_date":   "2024-01-01",
		"weight_kg":    54.5,
	}, doctor(t))
	require.Equal(t, http.StatusCreated, code, resp)
	data := resp["data"].(map[string]interface{})
	tr := data["treatment"].(map[string]interface{})
	return uint(tr["ID"].(float64))
}
