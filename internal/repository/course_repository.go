package repository

import (
	"eduforge_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var c model.Course
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *CourseRepository) FindByIDWithTopics(id uint) (*model.Course, error) {
	var c model.Course
	err := r.DB.Preload("Topics", func(db *gorm.DB) *gorm.DB {
		return db.Order("topic_order asc")
	}).First(&c, id).Error
	return &c, err
}

func (r *CourseRepository) List(page, limit int) ([]model.Course, int64, error) {
	var cs []model.Course
	var total int64
	query := r.DB.Model(&model.Course{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&cs).Error
	return cs, total, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

// GetCourseTopicsWithSkillsAndLessons loads the full topic tree of a course,
// ordered, with skills and lesson summaries.
func (r *CourseRepository) GetCourseTopicsWithSkillsAndLessons(courseID uint) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.DB.Where("course_id = ?", courseID).
		Order("topic_order asc").
		Preload("Skills").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lesson_order asc")
		}).
		Find(&topics).Error
	return topics, err
}

// UpdateCourseTestStatus flips the entry-test generation status of a course.
func (r *CourseRepository) UpdateCourseTestStatus(courseID uint, status model.TestGenerationStatus) error {
	return r.DB.Model(&model.Course{}).
		Where("id = ?", courseID).
		Update("test_generation_status", status).Error
}

// ReplaceTopics writes the promoted topic tree for a course inside a
// transaction: previous topics (and their cascaded children) go away, the
// new tree is inserted as a whole. tests[i], when non-nil, becomes topic i's
// test.
func (r *CourseRepository) ReplaceTopics(courseID uint, topics []model.Topic, tests []*model.Test) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.Topic{}).Error; err != nil {
			return err
		}
		for i := range topics {
			cid := courseID
			topics[i].CourseID = &cid
			if err := tx.Create(&topics[i]).Error; err != nil {
				return err
			}
			if i < len(tests) && tests[i] != nil {
				tid := topics[i].ID
				tests[i].TopicID = &tid
				if err := tx.Create(tests[i]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CourseRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var l model.Lesson
	err := r.DB.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("section_order asc")
	}).First(&l, id).Error
	return &l, err
}

func (r *CourseRepository) FindTopicByID(id uint) (*model.Topic, error) {
	var t model.Topic
	err := r.DB.Preload("Skills").First(&t, id).Error
	return &t, err
}
