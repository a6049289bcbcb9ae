package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/importer"
)

const maxImportSize = 5 * 1024 * 1024

type ImportHandler struct {
	importer *importer.Importer
}

func NewImportHandler(im *importer.Importer) *ImportHandler {
	return &ImportHandler{importer: im}
}

// ImportCompanies - POST /admin/companies/import (multipart "file", optional "dry_run")
func (h *ImportHandler) ImportCompanies(c *fiber.Ctx) error {
	dryRun := c.FormValue("dry_run") == "true"

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_FILE", "Dosya bulunamadı"))
	}
	if file.Size > maxImportSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("FILE_TOO_LARGE", "Dosya en fazla 5MB olabilir"))
	}
	format, err := importer.DetectFormat(file.Filename)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_FILE_TYPE", "Dosya CSV veya XLSX olmalı"))
	}

	f, err := file.Open()
	if err != nil {
		return internalError(c, "Dosya açılamadı", err)
	}
	defer f.Close()

	rows, parseErrors := importer.Parse(f, format)
	if len(rows) == 0 && len(parseErrors) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("EMPTY_FILE", "Dosyada veri yok"))
	}

	resp, err := h.importer.Run(rows, parseErrors, dryRun)
	if err != nil {
		return internalError(c, "İçe aktarma başarısız", err)
	}

	message := "İçe aktarma tamamlandı"
	if dryRun {
		message = "Deneme tamamlandı"
	}
	return c.JSON(dto.SuccessResponse(resp, message))
}

// DownloadTemplate returns a sample CSV
func (h *ImportHandler) DownloadTemplate(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", "attachment; filename=firma_sablonu.csv")

	template := "name,sector,website,description\n"
	template += "Turkcell,Telekom,https://www.turkcell.com.tr,Mobil operatör\n"
	template += "Trendyol,E-Ticaret,https://www.trendyol.com,\n"

	return c.SendString(template)
}
