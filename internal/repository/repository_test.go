package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sims/backend/internal/model"
	"sims/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（内存 SQLite，每个测试独立库）
// ═══════════════════════════════════════════════════════════

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开 SQLite 失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&model.Course{}, &model.CourseVersion{}); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

func seedCourse(t *testing.T, repo *repository.Repository, code string, prereqs ...string) *model.Course {
	t.Helper()
	course := &model.Course{
		Code:          code,
		Title:         code + " 课程",
		Credits:       3,
		Prerequisites: model.EncodeCodeList(prereqs),
	}
	if err := repo.Course.Create(context.Background(), course); err != nil {
		t.Fatalf("创建课程 %s 失败: %v", code, err)
	}
	return course
}

// ── CourseRepository ──

func TestCourseRepo_GetByIDAndCode(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	course := seedCourse(t, repo, "MATH201", "MATH101")
	if course.CourseID == "" {
		t.Fatal("创建后应生成 CourseID")
	}

	byID, err := repo.Course.GetByID(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if byID.Code != "MATH201" {
		t.Errorf("期望 Code=MATH201，实际=%s", byID.Code)
	}
	codes, ok := byID.PrerequisiteCodes()
	if !ok || len(codes) != 1 || codes[0] != "MATH101" {
		t.Errorf("期望先修 [MATH101]，实际 %v (ok=%v)", codes, ok)
	}

	byCode, err := repo.Course.GetByCode(ctx, "MATH201")
	if err != nil {
		t.Fatalf("GetByCode 应成功: %v", err)
	}
	if byCode.CourseID != course.CourseID {
		t.Errorf("GetByCode 返回了错误的课程: %s", byCode.CourseID)
	}

	if _, err := repo.Course.GetByCode(ctx, "NOPE999"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不存在的代码应返回 ErrRecordNotFound，实际: %v", err)
	}
	if _, err := repo.Course.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不存在的 ID 应返回 ErrRecordNotFound，实际: %v", err)
	}
}

func TestCourseRepo_ListOrderedByCode(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))

	seedCourse(t, repo, "MATH301")
	seedCourse(t, repo, "CS101")
	seedCourse(t, repo, "MATH101")

	courses, err := repo.Course.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	want := []string{"CS101", "MATH101", "MATH301"}
	if len(courses) != len(want) {
		t.Fatalf("期望 %d 门课程，实际 %d", len(want), len(courses))
	}
	for i, c := range courses {
		if c.Code != want[i] {
			t.Errorf("第 %d 门期望 %s，实际 %s", i, want[i], c.Code)
		}
	}
}

func TestCourseRepo_DuplicateCodeRejected(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	seedCourse(t, repo, "CS101")

	dup := &model.Course{Code: "CS101", Title: "重复"}
	if err := repo.Course.Create(context.Background(), dup); err == nil {
		t.Error("重复 code 应违反唯一索引")
	}
}

func TestCourseRepo_MalformedPrerequisites(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewRepository(db)
	course := seedCourse(t, repo, "CS900")

	if err := db.Model(&model.Course{}).
		Where("course_id = ?", course.CourseID).
		Update("prerequisites", `{"oops":true}`).Error; err != nil {
		t.Fatalf("写入异常数据失败: %v", err)
	}

	got, err := repo.Course.GetByID(context.Background(), course.CourseID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if _, ok := got.PrerequisiteCodes(); ok {
		t.Error("对象形式的 prerequisites 应视为格式异常")
	}
}

// ── CourseVersionRepository ──

func TestCourseVersionRepo_ListAndActive(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "CS201")

	for _, v := range []int{2, 1, 3} {
		err := repo.CourseVersion.Create(ctx, &model.CourseVersion{
			CourseID:      course.CourseID,
			Version:       v,
			Title:         fmt.Sprintf("v%d", v),
			Prerequisites: []string{"CS101"},
			IsActive:      v == 3,
		})
		if err != nil {
			t.Fatalf("创建版本 %d 失败: %v", v, err)
		}
	}

	versions, err := repo.CourseVersion.ListByCourse(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("ListByCourse 应成功: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("期望 3 个版本，实际 %d", len(versions))
	}
	for i, v := range versions {
		if v.Version != i+1 {
			t.Errorf("版本应按升序排列，第 %d 个为 v%d", i, v.Version)
		}
	}
	if len(versions[0].Prerequisites) != 1 || versions[0].Prerequisites[0] != "CS101" {
		t.Errorf("快照先修应为 [CS101]，实际 %v", versions[0].Prerequisites)
	}

	active, err := repo.CourseVersion.GetActiveByCourse(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("GetActiveByCourse 应成功: %v", err)
	}
	if active.Version != 3 {
		t.Errorf("期望活动版本 v3，实际 v%d", active.Version)
	}

	if err := repo.CourseVersion.SetActive(ctx, active.VersionID, false); err != nil {
		t.Fatalf("SetActive 应成功: %v", err)
	}
	if _, err := repo.CourseVersion.GetActiveByCourse(ctx, course.CourseID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("归档后不应存在活动版本，实际: %v", err)
	}
}

func TestCourseVersionRepo_ActivePrefersHighestVersion(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "CS203")

	// 主键顺序与版本号相反，遗留数据中两个版本同时处于活动状态
	for _, v := range []struct {
		id      string
		version int
	}{
		{"ffffffff-ffff-4fff-bfff-ffffffffffff", 1},
		{"00000000-0000-4000-8000-000000000001", 2},
	} {
		err := repo.CourseVersion.Create(ctx, &model.CourseVersion{
			VersionID:     v.id,
			CourseID:      course.CourseID,
			Version:       v.version,
			Title:         fmt.Sprintf("v%d", v.version),
			Prerequisites: []string{},
			IsActive:      true,
		})
		if err != nil {
			t.Fatalf("创建版本 %d 失败: %v", v.version, err)
		}
	}

	active, err := repo.CourseVersion.GetActiveByCourse(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("GetActiveByCourse 应成功: %v", err)
	}
	if active.Version != 2 {
		t.Errorf("多个活动版本时应返回最高版本 v2，实际 v%d", active.Version)
	}
}

func TestCourseVersionRepo_DuplicateVersionRejected(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "CS202")

	first := &model.CourseVersion{CourseID: course.CourseID, Version: 1, Title: "v1", Prerequisites: []string{}}
	if err := repo.CourseVersion.Create(ctx, first); err != nil {
		t.Fatalf("创建版本失败: %v", err)
	}
	dup := &model.CourseVersion{CourseID: course.CourseID, Version: 1, Title: "v1 again", Prerequisites: []string{}}
	if err := repo.CourseVersion.Create(ctx, dup); err == nil {
		t.Error("同一课程的版本号不应重复")
	}
}

// ── Transaction ──

func TestRepository_TransactionRollback(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "CS301")

	errBoom := errors.New("boom")
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Course.LockByID(ctx, course.CourseID); err != nil {
			return err
		}
		if err := txRepo.CourseVersion.Create(ctx, &model.CourseVersion{
			CourseID: course.CourseID, Version: 1, Title: "v1", Prerequisites: []string{}, IsActive: true,
		}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("期望事务返回 boom，实际: %v", err)
	}

	versions, err := repo.CourseVersion.ListByCourse(ctx, course.CourseID)
	if err != nil {
		t.Fatalf("ListByCourse 应成功: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("事务回滚后不应留下版本，实际 %d", len(versions))
	}
}

func TestRepository_TransactionWithoutDB(t *testing.T) {
	repo := &repository.Repository{}
	called := false
	err := repo.Transaction(context.Background(), func(txRepo *repository.Repository) error {
		called = txRepo == repo
		return nil
	})
	if err != nil || !called {
		t.Errorf("未绑定数据库时应直接以当前聚合执行 (err=%v, called=%v)", err, called)
	}
}

func TestRepository_MalformedIDTreatedAsNotFound(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.Course.GetByID(ctx, "not-a-uuid"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Course.GetByID 期望 ErrRecordNotFound，实际: %v", err)
	}
	if _, err := repo.CourseVersion.GetByID(ctx, "not-a-uuid"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("CourseVersion.GetByID 期望 ErrRecordNotFound，实际: %v", err)
	}
	versions, err := repo.CourseVersion.ListByCourse(ctx, "not-a-uuid")
	if err != nil || len(versions) != 0 {
		t.Errorf("ListByCourse 期望空列表，实际 %v (err=%v)", versions, err)
	}
}
