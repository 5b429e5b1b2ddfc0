package model

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// StrikeConfigurationVersion is the configuration schema version Scale
// accepts. Version "2.0" documents are upgraded by the server.
const StrikeConfigurationVersion = "6"

// Monitor types a Strike can watch with.
var MonitorTypes = []string{"dir-watcher", "s3"}

type StrikeMonitor struct {
	Type           string `json:"type" validate:"required,oneof=dir-watcher s3"`
	TransferSuffix string `json:"transfer_suffix,omitempty" validate:"required_if=Type dir-watcher"`
	SQSName        string `json:"sqs_name,omitempty" validate:"required_if=Type s3"`
	Region         string `json:"region_name,omitempty"`
}

type StrikeFile struct {
	FilenameRegex string   `json:"filename_regex" validate:"required,regexp"`
	DataTypes     []string `json:"data_types,omitempty" validate:"dive,required"`
	NewWorkspace  string   `json:"new_workspace,omitempty"`
	NewFilePath   string   `json:"new_file_path,omitempty"`
}

type StrikeRecipe struct {
	Name        string `json:"name" validate:"required"`
	RevisionNum int    `json:"revision_num,omitempty" validate:"gte=0"`
}

// StrikeConfiguration tells a Strike process which workspace to monitor and
// which files to ingest from it.
type StrikeConfiguration struct {
	Version       string        `json:"version,omitempty"`
	Workspace     string        `json:"workspace" validate:"required"`
	Monitor       StrikeMonitor `json:"monitor"`
	FilesToIngest []StrikeFile  `json:"files_to_ingest" validate:"required,min=1,dive"`
	Recipe        *StrikeRecipe `json:"recipe,omitempty"`
}

type Strike struct {
	ID            int64               `json:"id,omitempty"`
	Name          string              `json:"name" validate:"required"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Configuration StrikeConfiguration `json:"configuration"`
	Job           *Job                `json:"job,omitempty"`
	Created       *time.Time          `json:"created,omitempty"`
	LastModified  *time.Time          `json:"last_modified,omitempty"`
}

// DraftKey is the key a locally edited strike is kept under until it is
// saved or cleared.
func (s Strike) DraftKey() string {
	return fmt.Sprintf("%s%d", StrikeDraftPrefix, s.ID)
}

// ValidationWarning is one warning returned by a validation endpoint.
type ValidationWarning struct {
	ID      string `json:"id"`
	Details string `json:"details"`
}

type ValidationResult struct {
	Warnings []ValidationWarning `json:"warnings"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func docValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// checkStruct runs the validate tags of v. The returned error joins one
// message per failed field.
func checkStruct(v any) error {
	err := docValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		msgs = append(msgs, errors.New(msg))
	}
	return errors.Join(msgs...)
}

// Validate checks the strike locally before it is sent for server side
// validation.
func (s Strike) Validate() error {
	return checkStruct(s)
}
