package importer

import (
	"strings"
	"testing"

	"github.com/sikayetim/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

const sheet = `name,sector,website,description
Turkcell,Telekom,https://turkcell.com.tr,Mobil operatör
Vodafone,Telekom,,
Trendyol,E Ticaret,,Pazaryeri
,Banka,,
Turkcell,Telekom,,
Garanti BBVA,Banka,,
`

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("Firmalar.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("list.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("list.xls")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_CSVSkipsHeaderAndReportsBadRows(t *testing.T) {
	rows, errs := Parse(strings.NewReader(sheet), FormatCSV)

	require.Len(t, rows, 5)
	assert.Equal(t, "Turkcell", rows[0].Name)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "https://turkcell.com.tr", rows[0].Website)

	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Row)
}

func TestParse_CSVWithByteOrderMark(t *testing.T) {
	rows, errs := Parse(strings.NewReader("\ufeffname,sector\nHepsiburada,E Ticaret\n"), FormatCSV)

	assert.Empty(t, errs)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hepsiburada", rows[0].Name)
}

func TestParse_RejectsSectorWithoutSlug(t *testing.T) {
	rows, errs := Parse(strings.NewReader("Firma A,!!!\nFirma B,???\nFirma C,Banka\n"), FormatCSV)

	require.Len(t, rows, 1)
	assert.Equal(t, "Firma C", rows[0].Name)
	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].Row)
	assert.Equal(t, "Sektör adı geçersiz", errs[1].Error)
}

func TestParse_XLSX(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	first := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(first, "A1", &[]interface{}{"Firma", "Sektör"}))
	require.NoError(t, book.SetSheetRow(first, "A2", &[]interface{}{"Getir", "Market"}))
	require.NoError(t, book.SetSheetRow(first, "A3", &[]interface{}{"Migros", "Market", "https://migros.com.tr"}))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	rows, errs := Parse(buf, FormatXLSX)
	assert.Empty(t, errs)
	require.Len(t, rows, 2)
	assert.Equal(t, "Migros", rows[1].Name)
	assert.Equal(t, "https://migros.com.tr", rows[1].Website)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&domain.Sector{Name: "Telekom", Slug: "telekom"}).Error)

	rows, parseErrs := Parse(strings.NewReader(sheet), FormatCSV)
	resp, err := New(db).Run(rows, parseErrs, true)
	require.NoError(t, err)

	assert.True(t, resp.DryRun)
	assert.Equal(t, 4, resp.CreatedCompanies)
	assert.ElementsMatch(t, []string{"E Ticaret", "Banka"}, resp.SectorsToCreate)
	assert.Equal(t, 2, resp.Skipped, "blank name and duplicate row")

	var count int64
	db.Model(&domain.Company{}).Count(&count)
	assert.Zero(t, count)
}

func TestRun_CreatesSectorsAndSkipsExistingSlugs(t *testing.T) {
	db := setupTestDB(t)
	telekom := &domain.Sector{Name: "Telekom", Slug: "telekom"}
	require.NoError(t, db.Create(telekom).Error)
	require.NoError(t, db.Create(&domain.Sector{Name: "E-Ticaret", Slug: "e-ticaret"}).Error)
	require.NoError(t, db.Create(&domain.Company{Name: "Vodafone", Slug: "vodafone", SectorID: telekom.ID}).Error)

	rows, parseErrs := Parse(strings.NewReader(sheet), FormatCSV)
	resp, err := New(db).Run(rows, parseErrs, false)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.CreatedCompanies)
	assert.Equal(t, 1, resp.CreatedSectors, "E Ticaret matches e-ticaret by slug")
	assert.Equal(t, 3, resp.Skipped)

	var trendyol domain.Company
	require.NoError(t, db.Preload("Sector").Where("slug = ?", "trendyol").First(&trendyol).Error)
	assert.True(t, trendyol.IsApproved)
	assert.Equal(t, "e-ticaret", trendyol.Sector.Slug)
	require.NotNil(t, trendyol.Description)
	assert.Equal(t, "Pazaryeri", *trendyol.Description)

	var banka domain.Sector
	require.NoError(t, db.Where("slug = ?", "banka").First(&banka).Error)
}
