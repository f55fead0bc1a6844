package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"sims/backend/internal/model"
	"sims/backend/internal/repository"
)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.RWMutex
	courses map[string]*model.Course
	lookups int
	failOn  string // GetByCode 遇到该代码时返回存储错误
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

// add 直接写入课程；prereqs 为原始 JSON（空串表示字段缺失）
func (m *mockCourseRepo) add(id, code string, prereqs string) *model.Course {
	c := &model.Course{CourseID: id, Code: code, Title: code + " 课程"}
	if prereqs != "" {
		c.Prerequisites = []byte(prereqs)
	}
	m.mu.Lock()
	m.courses[id] = c
	m.mu.Unlock()
	return c
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.courses {
		if c.Code == course.Code {
			return fmt.Errorf("duplicate code %s", course.Code)
		}
	}
	if course.CourseID == "" {
		course.CourseID = "course-" + course.Code
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failOn != "" && code == m.failOn {
		return nil, fmt.Errorf("connection reset")
	}
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]model.Course, 0, len(m.courses))
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) LockByID(ctx context.Context, id string) (*model.Course, error) {
	return m.GetByID(ctx, id)
}

// ── Mock CourseVersionRepository ──

type mockCourseVersionRepo struct {
	mu         sync.Mutex
	versions   map[string]*model.CourseVersion
	seq        int
	staleIndex bool  // GetActiveByCourse 模拟索引滞后
	indexErr   error // GetActiveByCourse 返回的错误（优先于 staleIndex）
}

func newMockCourseVersionRepo() *mockCourseVersionRepo {
	return &mockCourseVersionRepo{versions: make(map[string]*model.CourseVersion)}
}

// put 直接写入版本，绕过业务规则（用于构造异常数据）
func (m *mockCourseVersionRepo) put(courseID string, version int, active bool) *model.CourseVersion {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	v := &model.CourseVersion{
		VersionID: fmt.Sprintf("ver-%03d", m.seq),
		CourseID:  courseID,
		Version:   version,
		Title:     fmt.Sprintf("v%d", version),
		IsActive:  active,
		CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	m.versions[v.VersionID] = v
	return v
}

func (m *mockCourseVersionRepo) Create(_ context.Context, version *model.CourseVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.CourseID == version.CourseID && v.Version == version.Version {
			return fmt.Errorf("duplicate version %d", version.Version)
		}
	}
	m.seq++
	if version.VersionID == "" {
		version.VersionID = fmt.Sprintf("ver-%03d", m.seq)
	}
	cp := *version
	m.versions[version.VersionID] = &cp
	return nil
}

func (m *mockCourseVersionRepo) GetByID(_ context.Context, id string) (*model.CourseVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.versions[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseVersionRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(courseID), nil
}

func (m *mockCourseVersionRepo) listLocked(courseID string) []model.CourseVersion {
	result := make([]model.CourseVersion, 0)
	for _, v := range m.versions {
		if v.CourseID == courseID {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result
}

func (m *mockCourseVersionRepo) GetActiveByCourse(_ context.Context, courseID string) (*model.CourseVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	if m.staleIndex {
		return nil, gorm.ErrRecordNotFound
	}
	for _, v := range m.listLocked(courseID) {
		if v.IsActive {
			cp := v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseVersionRepo) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.IsActive = active
	return nil
}

// activeCount 统计某课程的活动版本数
func (m *mockCourseVersionRepo) activeCount(courseID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.versions {
		if v.CourseID == courseID && v.IsActive {
			n++
		}
	}
	return n
}

// ── 聚合 ──

func newMockRepository() (*repository.Repository, *mockCourseRepo, *mockCourseVersionRepo) {
	courseRepo := newMockCourseRepo()
	versionRepo := newMockCourseVersionRepo()
	return &repository.Repository{
		Course:        courseRepo,
		CourseVersion: versionRepo,
	}, courseRepo, versionRepo
}
