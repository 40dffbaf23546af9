package service

import (
	"context"
	"sort"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests. They mirror the
// Mongo implementations' contract: sentinel errors, unique-index behavior on
// email / alunoId / legadoId, and the sort orders the services rely on.

// --- users ---

type memUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	r.users[u.ID] = &u
	return u.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetStudentsByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	var students []domain.User
	for _, u := range r.users {
		if u.Role == domain.RoleStudent && u.TrainerID != nil && *u.TrainerID == trainerID {
			students = append(students, *u)
		}
	}
	return students, nil
}

func (r *memUserRepo) CountActiveStudents(_ context.Context, trainerID primitive.ObjectID) (int64, error) {
	var count int64
	for _, u := range r.users {
		if u.Role == domain.RoleStudent && u.TrainerID != nil && *u.TrainerID == trainerID &&
			u.Status == domain.StudentActive {
			count++
		}
	}
	return count, nil
}

func (r *memUserRepo) SetStudentStatus(_ context.Context, studentID, trainerID primitive.ObjectID, status domain.StudentStatus) error {
	u, ok := r.users[studentID]
	if !ok || u.TrainerID == nil || *u.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	u.Status = status
	return nil
}

// addStudent seeds a student directly, bypassing Create's email check.
func (r *memUserRepo) addStudent(trainerID primitive.ObjectID, status domain.StudentStatus) primitive.ObjectID {
	id := primitive.NewObjectID()
	r.users[id] = &domain.User{
		ID:        id,
		Name:      "Aluno " + id.Hex()[:6],
		Email:     id.Hex() + "@test.local",
		Role:      domain.RoleStudent,
		TrainerID: &trainerID,
		Status:    status,
	}
	return id
}

// --- plans ---

type memPlanRepo struct {
	plans map[primitive.ObjectID]*domain.Plan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[primitive.ObjectID]*domain.Plan)}
}

func (r *memPlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	for _, existing := range r.plans {
		if existing.Name == plan.Name {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	p := *plan
	p.ID = primitive.NewObjectID()
	r.plans[p.ID] = &p
	return p.ID, nil
}

func (r *memPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memPlanRepo) List(_ context.Context, onlyActive bool) ([]domain.Plan, error) {
	var plans []domain.Plan
	for _, p := range r.plans {
		if onlyActive && !p.Active {
			continue
		}
		plans = append(plans, *p)
	}
	return plans, nil
}

func (r *memPlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *plan
	r.plans[plan.ID] = &copied
	return nil
}

func (r *memPlanRepo) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Active = active
	return nil
}

func (r *memPlanRepo) FindActiveFree(_ context.Context) (*domain.Plan, error) {
	for _, p := range r.plans {
		if p.Active && p.Kind == domain.PlanFree {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- plan assignments ---

type memAssignmentRepo struct {
	assignments []*domain.PlanAssignment
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{}
}

func (r *memAssignmentRepo) Create(_ context.Context, assignment *domain.PlanAssignment) (primitive.ObjectID, error) {
	a := *assignment
	a.ID = primitive.NewObjectID()
	r.assignments = append(r.assignments, &a)
	assignment.ID = a.ID
	return a.ID, nil
}

func (r *memAssignmentRepo) GetCurrentByTrainerID(_ context.Context, trainerID primitive.ObjectID, now time.Time) (*domain.PlanAssignment, error) {
	var current *domain.PlanAssignment
	for _, a := range r.assignments {
		if a.TrainerID != trainerID || !a.IsCurrent(now) {
			continue
		}
		if current == nil || a.ExpiryDate.After(current.ExpiryDate) {
			current = a
		}
	}
	if current == nil {
		return nil, repository.ErrNotFound
	}
	copied := *current
	return &copied, nil
}

func (r *memAssignmentRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.PlanAssignment, error) {
	var result []domain.PlanAssignment
	for _, a := range r.assignments {
		if a.TrainerID == trainerID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) DeactivateCurrent(_ context.Context, trainerID primitive.ObjectID) error {
	for _, a := range r.assignments {
		if a.TrainerID == trainerID {
			a.Active = false
		}
	}
	return nil
}

func (r *memAssignmentRepo) ListCurrent(_ context.Context, now time.Time) ([]domain.PlanAssignment, error) {
	var result []domain.PlanAssignment
	for _, a := range r.assignments {
		if a.IsCurrent(now) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) FindExpiring(_ context.Context, from, to time.Time) ([]domain.PlanAssignment, error) {
	var result []domain.PlanAssignment
	for _, a := range r.assignments {
		if a.Active && !a.ExpiryDate.Before(from) && !a.ExpiryDate.After(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

// --- tokens ---

type memTokenRepo struct {
	tokens []*domain.Token
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{}
}

func (r *memTokenRepo) Create(_ context.Context, token *domain.Token) (primitive.ObjectID, error) {
	if token.LegacyID != "" {
		for _, existing := range r.tokens {
			if existing.LegacyID == token.LegacyID {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	t := *token
	t.ID = primitive.NewObjectID()
	r.tokens = append(r.tokens, &t)
	token.ID = t.ID
	return t.ID, nil
}

func (r *memTokenRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Token, error) {
	for _, t := range r.tokens {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) GetValidByTrainerID(_ context.Context, trainerID primitive.ObjectID, now time.Time) ([]domain.Token, error) {
	var result []domain.Token
	for _, t := range r.tokens {
		if t.TrainerID == trainerID && t.Valid(now) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpiryDate.Before(result[j].ExpiryDate)
	})
	return result, nil
}

func (r *memTokenRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Token, error) {
	var result []domain.Token
	for _, t := range r.tokens {
		if t.TrainerID == trainerID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *memTokenRepo) ExistsByLegacyID(_ context.Context, legacyID string) (bool, error) {
	for _, t := range r.tokens {
		if t.LegacyID == legacyID {
			return true, nil
		}
	}
	return false, nil
}

// --- token assignments (consumption records) ---

type memConsumptionRepo struct {
	records map[primitive.ObjectID]*domain.TokenAssignment // keyed by student
}

func newMemConsumptionRepo() *memConsumptionRepo {
	return &memConsumptionRepo{records: make(map[primitive.ObjectID]*domain.TokenAssignment)}
}

func (r *memConsumptionRepo) Create(_ context.Context, assignment *domain.TokenAssignment) (primitive.ObjectID, error) {
	if _, exists := r.records[assignment.StudentID]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	a := *assignment
	a.ID = primitive.NewObjectID()
	r.records[a.StudentID] = &a
	assignment.ID = a.ID
	return a.ID, nil
}

func (r *memConsumptionRepo) GetByStudentID(_ context.Context, studentID primitive.ObjectID) (*domain.TokenAssignment, error) {
	a, ok := r.records[studentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memConsumptionRepo) DeleteByStudentID(_ context.Context, studentID primitive.ObjectID) error {
	delete(r.records, studentID)
	return nil
}

func (r *memConsumptionRepo) CountTokenConsumed(_ context.Context, tokenIDs []primitive.ObjectID) (int64, error) {
	var count int64
	for _, a := range r.records {
		if a.Type != domain.SourceToken || a.TokenID == nil {
			continue
		}
		for _, id := range tokenIDs {
			if *a.TokenID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *memConsumptionRepo) ListByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.TokenAssignment, error) {
	var result []domain.TokenAssignment
	for _, a := range r.records {
		if a.TrainerID == trainerID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// --- legacy tokens ---

type memLegacyRepo struct {
	tokens []domain.LegacyToken
}

func (r *memLegacyRepo) ListAll(_ context.Context) ([]domain.LegacyToken, error) {
	return r.tokens, nil
}

// --- renewal requests ---

type memRenewalRepo struct {
	requests map[primitive.ObjectID]*domain.RenewalRequest
}

func newMemRenewalRepo() *memRenewalRepo {
	return &memRenewalRepo{requests: make(map[primitive.ObjectID]*domain.RenewalRequest)}
}

func (r *memRenewalRepo) Create(_ context.Context, request *domain.RenewalRequest) (primitive.ObjectID, error) {
	req := *request
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	r.requests[req.ID] = &req
	request.ID = req.ID
	return req.ID, nil
}

func (r *memRenewalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.RenewalRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *memRenewalRepo) Update(_ context.Context, request *domain.RenewalRequest) error {
	if _, ok := r.requests[request.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *request
	copied.UpdatedAt = time.Now().UTC()
	r.requests[request.ID] = &copied
	return nil
}

func (r *memRenewalRepo) ListByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.RenewalRequest, error) {
	var result []domain.RenewalRequest
	for _, req := range r.requests {
		if req.TrainerID == trainerID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (r *memRenewalRepo) ListByStatus(_ context.Context, status domain.RenewalStatus) ([]domain.RenewalRequest, error) {
	var result []domain.RenewalRequest
	for _, req := range r.requests {
		if req.Status == status {
			result = append(result, *req)
		}
	}
	return result, nil
}

// --- notifications ---

type memNotificationRepo struct {
	notifications []domain.Notification
}

func (r *memNotificationRepo) Create(_ context.Context, notification *domain.Notification) (primitive.ObjectID, error) {
	n := *notification
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	r.notifications = append(r.notifications, n)
	return n.ID, nil
}

func (r *memNotificationRepo) ListByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	var result []domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- fake file storage ---

type memFileStorage struct {
	lastKey string
	deleted []string
}

func (s *memFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	s.lastKey = objectKey
	return "https://storage.test.local/upload/" + objectKey, nil
}

func (s *memFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test.local/download/" + objectKey, nil
}

func (s *memFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}
