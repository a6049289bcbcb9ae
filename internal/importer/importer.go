// Package importer loads companies from CSV or XLSX sheets.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var ErrUnsupportedFormat = errors.New("file must be .csv or .xlsx")

// Format picks the parser from the file extension.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return 0, ErrUnsupportedFormat
}

// Parse reads rows of name, sector, website, description. A header row is skipped.
func Parse(r io.Reader, format Format) ([]dto.CompanyImportRow, []dto.CompanyImportError) {
	var records [][]string
	var errs []dto.CompanyImportError

	switch format {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				errs = append(errs, dto.CompanyImportError{Row: len(records) + 1, Error: "Satır okunamadı"})
				records = append(records, nil)
				continue
			}
			records = append(records, record)
		}
	case FormatXLSX:
		book, err := excelize.OpenReader(r)
		if err != nil {
			return nil, []dto.CompanyImportError{{Row: 0, Error: "XLSX dosyası okunamadı"}}
		}
		defer book.Close()

		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, []dto.CompanyImportError{{Row: 0, Error: "XLSX dosyasında sayfa yok"}}
		}
		records, err = book.GetRows(sheets[0])
		if err != nil {
			return nil, []dto.CompanyImportError{{Row: 0, Error: "Sayfa okunamadı"}}
		}
	default:
		return nil, []dto.CompanyImportError{{Row: 0, Error: "Desteklenmeyen dosya türü"}}
	}

	// spreadsheet exports often prefix the file with a UTF-8 byte order mark
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	var rows []dto.CompanyImportRow
	for i, record := range records {
		rowNum := i + 1
		if record == nil || blank(record) {
			continue
		}
		if rowNum == 1 && isHeader(record[0]) {
			continue
		}
		row, rowErr := parseRow(rowNum, record)
		if rowErr != nil {
			errs = append(errs, *rowErr)
			continue
		}
		rows = append(rows, *row)
	}
	return rows, errs
}

func isHeader(first string) bool {
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "name", "firma", "firma adı", "firma adi", "company":
		return true
	}
	return false
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

func parseRow(rowNum int, record []string) (*dto.CompanyImportRow, *dto.CompanyImportError) {
	row := dto.CompanyImportRow{
		Row:         rowNum,
		Name:        cell(record, 0),
		Sector:      cell(record, 1),
		Website:     cell(record, 2),
		Description: cell(record, 3),
	}
	switch {
	case len([]rune(row.Name)) < 2:
		return nil, &dto.CompanyImportError{Row: rowNum, Name: row.Name, Error: "Firma adı en az 2 karakter olmalı"}
	case len([]rune(row.Name)) > 150:
		return nil, &dto.CompanyImportError{Row: rowNum, Name: row.Name, Error: "Firma adı en fazla 150 karakter olabilir"}
	case row.Sector == "":
		return nil, &dto.CompanyImportError{Row: rowNum, Name: row.Name, Error: "Sektör boş olamaz"}
	case repository.Slugify(row.Sector) == "":
		return nil, &dto.CompanyImportError{Row: rowNum, Name: row.Name, Error: "Sektör adı geçersiz"}
	}
	return &row, nil
}

// Importer writes parsed rows into the directory.
type Importer struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

type plannedCompany struct {
	row        dto.CompanyImportRow
	slug       string
	sectorSlug string
}

// Run validates rows against the database. Unless dryRun is set, missing sectors and
// new companies are created in one transaction. Companies whose slug already exists are skipped.
func (im *Importer) Run(rows []dto.CompanyImportRow, parseErrors []dto.CompanyImportError, dryRun bool) (*dto.CompanyImportResponse, error) {
	resp := &dto.CompanyImportResponse{
		DryRun:          dryRun,
		TotalRows:       len(rows) + len(parseErrors),
		SectorsToCreate: []string{},
		Errors:          append([]dto.CompanyImportError{}, parseErrors...),
	}
	resp.Skipped = len(parseErrors)

	companies := repository.NewCompanyRepository(im.db)
	sectors := repository.NewSectorRepository(im.db)

	// sector slug -> display name for sectors that do not exist yet
	missingSectors := map[string]string{}
	knownSectors := map[string]bool{}
	seen := map[string]int{}
	var planned []plannedCompany

	for _, row := range rows {
		slug := repository.Slugify(row.Name)
		if slug == "" {
			resp.Errors = append(resp.Errors, dto.CompanyImportError{Row: row.Row, Name: row.Name, Error: "Firma adından bağlantı üretilemedi"})
			resp.Skipped++
			continue
		}
		if first, dup := seen[slug]; dup {
			resp.Errors = append(resp.Errors, dto.CompanyImportError{Row: row.Row, Name: row.Name, Error: "Satır " + strconv.Itoa(first) + " ile aynı firma"})
			resp.Skipped++
			continue
		}
		seen[slug] = row.Row

		exists, err := companies.SlugExists(slug, nil)
		if err != nil {
			return nil, err
		}
		if exists {
			resp.Errors = append(resp.Errors, dto.CompanyImportError{Row: row.Row, Name: row.Name, Error: "Firma zaten kayıtlı"})
			resp.Skipped++
			continue
		}

		sectorSlug := repository.Slugify(row.Sector)
		if !knownSectors[sectorSlug] {
			if _, pending := missingSectors[sectorSlug]; !pending {
				found, err := findSector(sectors, row.Sector)
				if err != nil {
					return nil, err
				}
				if found != nil {
					knownSectors[sectorSlug] = true
				} else {
					missingSectors[sectorSlug] = row.Sector
					resp.SectorsToCreate = append(resp.SectorsToCreate, row.Sector)
				}
			}
		}
		planned = append(planned, plannedCompany{row: row, slug: slug, sectorSlug: sectorSlug})
	}

	if dryRun {
		resp.CreatedCompanies = len(planned)
		return resp, nil
	}

	err := im.db.Transaction(func(tx *gorm.DB) error {
		txSectors := sectors.WithTx(tx)
		txCompanies := companies.WithTx(tx)

		sectorIDs := map[string]*domain.Sector{}
		for _, p := range planned {
			if _, ok := sectorIDs[p.sectorSlug]; ok {
				continue
			}
			sector, err := findSector(txSectors, p.row.Sector)
			if err != nil {
				return err
			}
			if sector == nil {
				sector = &domain.Sector{Name: missingSectors[p.sectorSlug], Slug: p.sectorSlug}
				if err := txSectors.Create(sector); err != nil {
					return err
				}
				resp.CreatedSectors++
			}
			sectorIDs[p.sectorSlug] = sector
		}

		for _, p := range planned {
			company := &domain.Company{
				Name:        p.row.Name,
				Slug:        p.slug,
				SectorID:    sectorIDs[p.sectorSlug].ID,
				IsApproved:  true,
				Website:     optional(p.row.Website),
				Description: optional(p.row.Description),
			}
			if err := txCompanies.Create(company); err != nil {
				return err
			}
			resp.CreatedCompanies++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// findSector matches by name first, then by slug so "E Ticaret" finds "E-Ticaret".
func findSector(sectors *repository.SectorRepository, name string) (*domain.Sector, error) {
	sector, err := sectors.FindByName(name)
	if err == nil {
		return sector, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	sector, err = sectors.FindBySlug(repository.Slugify(name))
	if err == nil {
		return sector, nil
	}
	if repository.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
