package treatment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/model"
)

// -- Mock Repositories --

type mockTreatmentRepo struct {
	treatments map[uint]*model.Treatment
	nextID     uint
	nextFUID   uint
	saveErr    error
}

func newMockTreatmentRepo() *mockTreatmentRepo {
	return &mockTreatmentRepo{treatments: make(map[uint]*model.Treatment)}
}

func (m *mockTreatmentRepo) Create(_ context.Context, t *model.Treatment) error {
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	m.treatments[t.ID] = t
	return nil
}

func (m *mockTreatmentRepo) GetByID(_ context.Context, id uint) (*model.Treatment, error) {
	t, ok := m.treatments[id]
	if !ok {
		return nil, apperr.NotFound("treatment %d not found", id)
	}
	return t, nil
}

func (m *mockTreatmentRepo) Save(_ context.Context, t *model.Treatment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.treatments[t.ID]; !ok {
		return apperr.NotFound("treatment %d not found", t.ID)
	}
	m.treatments[t.ID] = t
	return nil
}

func (m *mockTreatmentRepo) List(_ context.Context, f ListFilter) ([]model.Treatment, int64, error) {
	var out []model.Treatment
	for _, t := range m.treatments {
		if f.PatientID != nil && t.PatientID != *f.PatientID {
			continue
		}
		if !f.IncludeArchived && t.Archived {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Regimen != "" && t.Regimen != f.Regimen {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *mockTreatmentRepo) AppendFollowUp(_ context.Context, f *model.FollowUp) error {
	t, ok := m.treatments[f.TreatmentID]
	if !ok {
		return apperr.NotFound("treatment %d not found", f.TreatmentID)
	}
	m.nextFUID++
	f.ID = m.nextFUID
	t.FollowUps = append(t.FollowUps, *f)
	return nil
}

func (m *mockTreatmentRepo) ListFollowUps(_ context.Context, treatmentID uint) ([]model.FollowUp, error) {
	t, ok := m.treatments[treatmentID]
	if !ok {
		return nil, apperr.NotFound("treatment %d not found", treatmentID)
	}
	return t.FollowUps, nil
}

type mockPatients struct {
	patients map[uint]*model.Patient
}

func newMockPatients(ps ...model.Patient) *mockPatients {
	m := &mockPatients{patients: make(map[uint]*model.Patient)}
	for i := range ps {
		m.patients[ps[i].ID] = &ps[i]
	}
	return m
}

func (m *mockPatients) FindPatientByID(_ context.Context, id uint) (*model.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient %d not found", id)
	}
	return p, nil
}

func (m *mockPatients) FindPatientByUserID(_ context.Context, userID uint) (*model.Patient, error) {
	for _, p := range m.patients {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.NotFound("no patient profile linked to user %d", userID)
}

type mockDiagnoses struct {
	diagnoses map[uint]*model.Diagnosis
}

func newMockDiagnoses(ds ...model.Diagnosis) *mockDiagnoses {
	m := &mockDiagnoses{diagnoses: make(map[uint]*model.Diagnosis)}
	for i := range ds {
		m.diagnoses[ds[i].ID] = &ds[i]
	}
	return m
}

func (m *mockDiagnoses) FindDiagnosisByID(_ context.Context, id uint) (*model.Diagnosis, error) {
	d, ok := m.diagnoses[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis %d not found", id)
	}
	return d, nil
}

type mockAppointments struct {
	requests []AppointmentRequest
	// failAfter makes every call after the first failAfter calls fail. -1 never fails.
	failAfter int
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{failAfter: -1}
}

func (m *mockAppointments) CreateAppointment(_ context.Context, req AppointmentRequest) (*model.Appointment, error) {
	if m.failAfter >= 0 && len(m.requests) >= m.failAfter {
		return nil, errors.New("scheduling backend unavailable")
	}
	m.requests = append(m.requests, req)
	appt := &model.Appointment{
		PatientID:   req.PatientID,
		TreatmentID: req.TreatmentID,
		Date:        req.Date,
		CreatedBy:   req.CreatedBy,
		Status:      "scheduled",
	}
	appt.ID = uint(len(m.requests))
	return appt, nil
}
