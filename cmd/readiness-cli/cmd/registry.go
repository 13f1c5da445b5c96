package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"readiness-workers/internal/common/validation"
	"readiness-workers/pkg/registry"
)

var (
	registryPath string
	updateID     string
	updateField  string
	updateValue  string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and edit the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check registry structure and compile every input schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		for _, a := range reg.Activities {
			if err := validation.ValidateActivityNaming(a.ID); err != nil {
				return err
			}
		}
		if _, err := validation.NewValidator(reg); err != nil {
			return err
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one field of an activity",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.SetField(updateID, updateField, updateValue); err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", updateID, updateField, updateValue)
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "path to registry file")

	registryUpdateCmd.Flags().StringVar(&updateID, "id", "", "activity ID to update")
	registryUpdateCmd.Flags().StringVar(&updateField, "field", "", "field to update: status, version, displayName, description, timeout, retries")
	registryUpdateCmd.Flags().StringVar(&updateValue, "value", "", "new value for the field")
	for _, name := range []string{"id", "field", "value"} {
		registryUpdateCmd.MarkFlagRequired(name)
	}

	registryCmd.AddCommand(registryValidateCmd, registryUpdateCmd)
	rootCmd.AddCommand(registryCmd)
}
