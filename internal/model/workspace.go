package model

import (
	"fmt"
	"time"
)

// WorkspaceConfigurationVersion is the workspace schema version written by
// new workspaces. Version "6" documents are still accepted.
const WorkspaceConfigurationVersion = "7"

// Broker types a workspace can be backed by.
var BrokerTypes = []string{"host", "nfs", "s3"}

type WorkspaceCredentials struct {
	AccessKeyID     string `json:"access_key_id" validate:"required"`
	SecretAccessKey string `json:"secret_access_key" validate:"required"`
}

// WorkspaceBroker says how Scale reaches the files of a workspace.
type WorkspaceBroker struct {
	Type        string                `json:"type" validate:"required,oneof=host nfs s3"`
	HostPath    string                `json:"host_path,omitempty" validate:"required_if=Type host"`
	NFSPath     string                `json:"nfs_path,omitempty" validate:"required_if=Type nfs"`
	BucketName  string                `json:"bucket_name,omitempty" validate:"required_if=Type s3"`
	RegionName  string                `json:"region_name,omitempty"`
	Credentials *WorkspaceCredentials `json:"credentials,omitempty"`
}

type WorkspaceConfiguration struct {
	Version string          `json:"version,omitempty"`
	Broker  WorkspaceBroker `json:"broker"`
}

// Workspace is a named storage location jobs read from and write to.
type Workspace struct {
	ID            int64                  `json:"id,omitempty"`
	Name          string                 `json:"name" validate:"required,max=50"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	BaseURL       string                 `json:"base_url,omitempty" validate:"omitempty,url"`
	IsActive      bool                   `json:"is_active"`
	Configuration WorkspaceConfiguration `json:"configuration"`
	Created       *time.Time             `json:"created,omitempty"`
	LastModified  *time.Time             `json:"last_modified,omitempty"`
}

// DraftKey is the key a locally edited workspace is kept under.
func (w Workspace) DraftKey() string {
	return fmt.Sprintf("%s%d", WorkspaceDraftPrefix, w.ID)
}

// Validate checks the workspace locally before it is sent to Scale.
func (w Workspace) Validate() error {
	return checkStruct(w)
}
