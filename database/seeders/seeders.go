package seeders

import (
	"log"
	"schoolfees_go/models"
	"schoolfees_go/utils"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedAll runs all seeders
func SeedAll(db *gorm.DB) {
	log.Println("Starting database seeding...")

	school := SeedSchool(db)
	if school == nil {
		return
	}
	SeedUsers(db, school.ID)
	SeedStudents(db, school.ID)
	SeedPricing(db, school.ID, models.AcademicYearAt(time.Now(), models.DefaultStartMonth))

	log.Println("Database seeding completed successfully!")
}

// SeedSchool returns the demo school, creating it on first run
func SeedSchool(db *gorm.DB) *models.School {
	school := models.School{
		Name:    "École Les Orangers",
		Code:    "ORANGERS",
		Address: "12 avenue Habib Bourguiba, Sfax",
		Phone:   "74 000 000",
		Active:  true,
	}
	if err := db.Where(models.School{Code: school.Code}).FirstOrCreate(&school).Error; err != nil {
		log.Printf("Error seeding school %s: %v", school.Code, err)
		return nil
	}
	return &school
}

// SeedUsers seeds the users table
func SeedUsers(db *gorm.DB, schoolID uint) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashedPassword, err := utils.HashPassword("password123")
	if err != nil {
		log.Printf("Error hashing seed password: %v", err)
		return
	}

	users := []models.User{
		{Username: "superadmin", Password: hashedPassword, Email: "root@orangers.tn", Name: "Super Admin", Role: models.RoleSuperAdmin, SchoolID: schoolID, Status: "active"},
		{Username: "admin", Password: hashedPassword, Email: "admin@orangers.tn", Name: "Direction", Role: models.RoleAdmin, SchoolID: schoolID, Status: "active"},
		{Username: "teacher", Password: hashedPassword, Email: "enseignant@orangers.tn", Name: "Mme Trabelsi", Role: models.RoleTeacher, SchoolID: schoolID, Status: "active"},
	}

	for _, user := range users {
		if err := db.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedStudents seeds one class per category and a few students
func SeedStudents(db *gorm.DB, schoolID uint) {
	var count int64
	db.Model(&models.Student{}).Where("school_id = ?", schoolID).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	classes := []models.Class{
		{SchoolID: schoolID, Name: "Petite section", Grade: "Maternal"},
		{SchoolID: schoolID, Name: "1A", Grade: "1ère année primaire"},
		{SchoolID: schoolID, Name: "7B", Grade: "7ème année"},
	}
	for i := range classes {
		if err := db.Create(&classes[i]).Error; err != nil {
			log.Printf("Error seeding class %s: %v", classes[i].Name, err)
			return
		}
	}

	students := []models.Student{
		{SchoolID: schoolID, FirstName: "Lina", LastName: "Gharbi", ParentName: "Sami Gharbi", ParentPhone: "20 111 222", ClassID: &classes[0].ID, Status: "active"},
		{SchoolID: schoolID, FirstName: "Youssef", LastName: "Mansour", ParentName: "Amel Mansour", ParentPhone: "22 333 444", ClassID: &classes[1].ID, Status: "active"},
		{SchoolID: schoolID, FirstName: "Ines", LastName: "Ben Ali", ParentName: "Karim Ben Ali", ParentPhone: "98 555 666", ClassID: &classes[2].ID, Status: "active"},
		{SchoolID: schoolID, FirstName: "Adam", LastName: "Jaziri", ParentName: "Nour Jaziri", ParentPhone: "55 777 888", Status: "active"},
	}
	for _, student := range students {
		if err := db.Create(&student).Error; err != nil {
			log.Printf("Error seeding student %s: %v", student.FullName(), err)
		}
	}

	log.Println("Students seeded successfully")
}

// SeedPricing creates a starting configuration for the year when none exists
func SeedPricing(db *gorm.DB, schoolID uint, academicYear string) {
	var count int64
	db.Model(&models.PricingConfiguration{}).
		Where("school_id = ? AND academic_year = ?", schoolID, academicYear).
		Count(&count)
	if count > 0 {
		log.Println("Pricing already seeded, skipping...")
		return
	}

	cfg := models.NewPricingConfiguration(schoolID, academicYear)
	for _, g := range models.KnownGrades {
		switch g.Category {
		case models.CategoryMaternelle:
			cfg.GradeAmounts[g.Grade] = decimal.NewFromInt(2400)
		case models.CategoryPrimaire:
			cfg.GradeAmounts[g.Grade] = decimal.NewFromInt(2700)
		default:
			cfg.GradeAmounts[g.Grade] = decimal.NewFromInt(3150)
		}
	}
	cfg.Uniform.Enabled = true
	cfg.Uniform.Price = decimal.NewFromInt(120)
	cfg.Transportation.Enabled = true
	cfg.Transportation.Close.MonthlyPrice = decimal.NewFromInt(60)
	cfg.Transportation.Far.MonthlyPrice = decimal.NewFromInt(90)
	cfg.RegistrationFee = models.RegistrationFeePricing{
		Enabled:   true,
		EarlyTier: decimal.NewFromInt(150),
		LateTier:  decimal.NewFromInt(200),
	}
	cfg.AnnualPaymentDiscount = models.AnnualDiscountPolicy{Enabled: true, Percentage: decimal.NewFromInt(5)}

	if err := db.Create(cfg).Error; err != nil {
		log.Printf("Error seeding pricing for %s: %v", academicYear, err)
		return
	}
	log.Printf("Pricing for %s seeded successfully", academicYear)
}
