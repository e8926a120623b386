package blueprint

import "fmt"

// InfrastructureComponent is a single piece of deployment infrastructure.
type InfrastructureComponent struct {
	Name          string         `json:"name"`
	Service       string         `json:"service"` // e.g. "EC2", "Cloud Run", "App Service"
	Purpose       string         `json:"purpose"`
	Configuration map[string]any `json:"configuration,omitempty"`
	EstimatedCost string         `json:"estimated_cost,omitempty"` // Monthly cost range
}

// DeploymentPlan is the deployment stage payload.
type DeploymentPlan struct {
	Platform              string                    `json:"platform"`
	Infrastructure        []InfrastructureComponent `json:"infrastructure"`
	DatabaseService       string                    `json:"database_service"`
	DatabaseConfiguration map[string]any            `json:"database_configuration,omitempty"`
	HostingService        string                    `json:"hosting_service"`
	HostingConfiguration  map[string]any            `json:"hosting_configuration,omitempty"`
	CICDStrategy          string                    `json:"ci_cd_strategy"`
	MonitoringStrategy    string                    `json:"monitoring_strategy"`
	MonitoringTools       []string                  `json:"monitoring_tools,omitempty"`
	ScalingStrategy       string                    `json:"scaling_strategy"`
	SecurityMeasures      []string                  `json:"security_measures"`
	BackupStrategy        string                    `json:"backup_strategy,omitempty"`
	EstimatedMonthlyCost  string                    `json:"estimated_monthly_cost,omitempty"`
	DeploymentSteps       []string                  `json:"deployment_steps,omitempty"`
	Reasoning             string                    `json:"reasoning"`
}

// Validate checks structural completeness of the plan.
func (p *DeploymentPlan) Validate() error {
	if p.Platform == "" {
		return fmt.Errorf("deployment: platform must not be empty")
	}
	if len(p.Infrastructure) == 0 {
		return fmt.Errorf("deployment: infrastructure must not be empty")
	}
	if p.DatabaseService == "" {
		return fmt.Errorf("deployment: database_service must not be empty")
	}
	if p.HostingService == "" {
		return fmt.Errorf("deployment: hosting_service must not be empty")
	}
	if p.CICDStrategy == "" {
		return fmt.Errorf("deployment: ci_cd_strategy must not be empty")
	}
	if p.MonitoringStrategy == "" {
		return fmt.Errorf("deployment: monitoring_strategy must not be empty")
	}
	if p.ScalingStrategy == "" {
		return fmt.Errorf("deployment: scaling_strategy must not be empty")
	}
	if len(p.SecurityMeasures) == 0 {
		return fmt.Errorf("deployment: security_measures must not be empty")
	}
	if p.Reasoning == "" {
		return fmt.Errorf("deployment: reasoning must not be empty")
	}

	for i := range p.Infrastructure {
		comp := &p.Infrastructure[i]
		if comp.Name == "" {
			return fmt.Errorf("deployment: infrastructure component %d has no name", i)
		}
		if comp.Service == "" {
			return fmt.Errorf("deployment: infrastructure component %q has no service", comp.Name)
		}
	}
	return nil
}
