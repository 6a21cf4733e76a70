package handler

import (
	"alumni_events/config"
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/utils"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

// RegisterAlumnus creates a member account from the public signup form.
func RegisterAlumnus(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.RegisterAlumnusInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	email := strings.ToLower(input.Email)
	existing, err := helper.GetAlumnusByEmail(email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "EMAIL_TAKEN", nil)
	}

	hashed, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var alumnus model.Alumnus
	if err := copier.Copy(&alumnus, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	alumnus.Email = email
	alumnus.Password = hashed
	alumnus.FullName = input.FirstName + " " + input.LastName

	if err := database.DB.Create(&alumnus).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"id":    alumnus.ID,
		"email": alumnus.Email,
	})
}

// GetAlumniDirectory lists members for the directory, with search and
// squadron/chapter filters.
func GetAlumniDirectory(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.FilterAlumniInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", nil)
	}

	query := database.DB.Model(&model.Alumnus{}).Where("active = ?", true)
	if input.Search != "" {
		like := "%" + input.Search + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ? OR service_number LIKE ?", like, like, like)
	}
	if input.Squadron != "" {
		query = query.Where("squadron = ?", input.Squadron)
	}
	if input.Chapter != "" {
		query = query.Where("chapter = ?", input.Chapter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var alumni []model.Alumnus
	if err := utils.ApplyPagination(query, input.Limit, input.Page).
		Order("full_name asc").
		Find(&alumni).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       alumni,
		Limit:      input.Limit,
		Page:       input.Page,
		TotalCount: total,
	})
}

// GetMyProfile returns the logged-in member's profile.
func GetMyProfile(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, alumnus)
}

// UpdateProfile updates the logged-in member's profile.
func UpdateProfile(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	input, ok := c.Locals("input").(model.UpdateProfileInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	if err := copier.CopyWithOption(&alumnus, &input, copier.Option{IgnoreEmpty: true}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if input.FirstName != "" || input.LastName != "" {
		alumnus.FullName = alumnus.FirstName + " " + alumnus.LastName
	}

	if err := database.DB.Save(&alumnus).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, alumnus)
}

// UploadProfilePhoto takes a multipart image, pushes it to cloudinary and
// stores the resulting URL on the profile.
func UploadProfilePhoto(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing photo file", err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Cannot read photo file", err)
	}
	defer file.Close()

	cld := helper.InitCloudinary()
	result, err := cld.Upload.Upload(context.Background(), file, uploader.UploadParams{
		Folder:   "alumni_profiles",
		PublicID: fmt.Sprintf("alumnus_%d", alumnus.ID),
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Upload failed", err)
	}

	if err := database.DB.Model(&alumnus).Update("profile_photo", result.SecureURL).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"profilePhoto": result.SecureURL})
}

// GenerateUploadSignature signs a direct-to-cloudinary upload for profile
// photos. The browser uploads straight to cloudinary with this signature;
// the file never passes through this service.
func GenerateUploadSignature(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	type SigParams struct {
		Folder   string `json:"folder"`
		PublicID string `json:"public_id"`
	}

	var params SigParams
	if err := c.BodyParser(&params); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid params", err)
	}
	if params.Folder == "" {
		params.Folder = "alumni_profiles"
	}

	timestamp := time.Now().Unix()
	timestampStr := fmt.Sprintf("%d", timestamp)

	paramMap := map[string]string{
		"folder":    params.Folder,
		"timestamp": timestampStr,
	}
	if params.PublicID != "" {
		paramMap["public_id"] = params.PublicID
	}

	// Cloudinary signs the alphabetically sorted raw key=value pairs
	// followed by the API secret.
	keys := make([]string, 0, len(paramMap))
	for k := range paramMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var stringToSign strings.Builder
	for i, k := range keys {
		if i > 0 {
			stringToSign.WriteString("&")
		}
		stringToSign.WriteString(k)
		stringToSign.WriteString("=")
		stringToSign.WriteString(paramMap[k])
	}
	stringToSign.WriteString(config.Config("CLOUDINARY_API_SECRET"))

	h := sha1.New()
	h.Write([]byte(stringToSign.String()))
	signature := hex.EncodeToString(h.Sum(nil))

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"signature": signature,
		"timestamp": timestamp,
		"apiKey":    config.Config("CLOUDINARY_API_KEY"),
		"cloudName": config.Config("CLOUDINARY_CLOUD_NAME"),
		"folder":    params.Folder,
	})
}
