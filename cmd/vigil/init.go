package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var initFlags struct {
	template string
	force    bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a starter configuration and sample rules",
	Long: `Scaffold a starter configuration file, a rule file and a matching
sample data file in the current directory.

The generated files form a working setup: "vigil run" succeeds against
them immediately, and the rule file shows the condition, filter and
inline test syntax. The --template flag selects a compliance-framework
starter rule set instead of the generic sample.

Examples:
  # Generic starter files
  vigil init

  # SOC 2 access-control starter rules
  vigil init --template soc2`,
	RunE: initProject,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initFlags.template, "template", "t", "", "compliance template: soc2, hipaa, gdpr, iso27001")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "overwrite existing files")
}

const initConfig = `# Vigil configuration.
# Every value shown here is the default; delete what you do not change.

engine:
  workers: 4
  rule_timeout: 30s
  max_violations_per_rule: 100

rules:
  paths:
    - ./rules

sources:
  data_dir: ./data

history:
  enabled: true
  path: data/vigil-history.db
  retention:
    days: 90

reports:
  output_dir: ./reports
  formats:
    - console

notifications:
  enabled: false
  min_severity: HIGH
  # slack:
  #   webhook_url: env://VIGIL_SLACK_WEBHOOK

schedule:
  spec: daily

logging:
  level: info
  format: text
`

// initTemplate is one scaffolded starter set: a rule file and the data
// files its rules run against.
type initTemplate struct {
	rulesFile string
	rules     string
	data      map[string]string
}

var genericTemplate = initTemplate{
	rulesFile: "sample.yaml",
	rules: `# Sample compliance rules. Conditions and filters use vex expressions;
# fields refer to columns of the rule's data source.
rules:
  - id: mfa-required
    name: MFA required for active accounts
    description: Every active user account must have MFA enabled.
    severity: HIGH
    condition: mfa_enabled == True
    filter: status == "active"
    data_source: users.csv
    tags: [access-control]

  - id: no-stale-admins
    name: Admin accounts must be recently active
    severity: CRITICAL
    condition: days_since_login < 30
    filter: role == "admin" and status == "active"
    data_source: users.csv
    tags: [access-control]

tests:
  - name: active user with mfa passes
    rule: mfa-required
    row: {status: active, mfa_enabled: true}
    want: pass
  - name: active user without mfa violates
    rule: mfa-required
    row: {status: active, mfa_enabled: false}
    want: violation
  - name: disabled user is excluded
    rule: mfa-required
    row: {status: disabled, mfa_enabled: false}
    want: excluded
`,
	data: map[string]string{
		"users.csv": `username,role,status,mfa_enabled,days_since_login
alice,admin,active,true,3
bob,user,active,true,12
carol,user,active,false,45
dave,admin,disabled,false,200
`,
	},
}

var initTemplates = map[string]initTemplate{
	"soc2": {
		rulesFile: "soc2.yaml",
		rules: `# SOC 2 starter rules: logical access controls (CC6).
rules:
  - id: soc2-mfa-required
    name: MFA required for active accounts
    description: Active user accounts must authenticate with MFA.
    severity: HIGH
    condition: mfa_enabled == True
    filter: status == "active"
    data_source: users.csv
    tags: [soc2, cc6.1]

  - id: soc2-terminated-disabled
    name: Terminated employees must have accounts disabled
    severity: CRITICAL
    condition: status == "disabled"
    filter: employment == "terminated"
    data_source: users.csv
    tags: [soc2, cc6.2]

  - id: soc2-access-review
    name: Access reviewed within the last quarter
    severity: MEDIUM
    condition: days_since_access_review <= 90
    filter: status == "active"
    data_source: users.csv
    tags: [soc2, cc6.3]

tests:
  - name: terminated and disabled passes
    rule: soc2-terminated-disabled
    row: {employment: terminated, status: disabled}
    want: pass
  - name: terminated but still active violates
    rule: soc2-terminated-disabled
    row: {employment: terminated, status: active}
    want: violation
  - name: current employee is excluded
    rule: soc2-terminated-disabled
    row: {employment: current, status: active}
    want: excluded
`,
		data: map[string]string{
			"users.csv": `username,employment,status,mfa_enabled,days_since_access_review
alice,current,active,true,30
bob,current,active,false,120
carol,terminated,active,true,10
dave,terminated,disabled,false,400
`,
		},
	},
	"hipaa": {
		rulesFile: "hipaa.yaml",
		rules: `# HIPAA starter rules: PHI access safeguards (Security Rule).
rules:
  - id: hipaa-phi-encrypted
    name: PHI stores must be encrypted at rest
    severity: CRITICAL
    condition: encrypted_at_rest == True
    filter: contains_phi == True
    data_source: systems.csv
    tags: [hipaa, 164.312]

  - id: hipaa-audit-logging
    name: Systems holding PHI must have audit logging enabled
    severity: HIGH
    condition: audit_logging == True
    filter: contains_phi == True
    data_source: systems.csv
    tags: [hipaa, 164.312]

  - id: hipaa-minimum-necessary
    name: PHI access limited to clinical and billing roles
    severity: HIGH
    condition: role in ["clinician", "billing"]
    filter: phi_access == True
    data_source: access.csv
    tags: [hipaa, 164.502]

tests:
  - name: encrypted phi store passes
    rule: hipaa-phi-encrypted
    row: {contains_phi: true, encrypted_at_rest: true}
    want: pass
  - name: unencrypted phi store violates
    rule: hipaa-phi-encrypted
    row: {contains_phi: true, encrypted_at_rest: false}
    want: violation
  - name: clinician access passes
    rule: hipaa-minimum-necessary
    row: {phi_access: true, role: clinician}
    want: pass
  - name: marketing access violates
    rule: hipaa-minimum-necessary
    row: {phi_access: true, role: marketing}
    want: violation
`,
		data: map[string]string{
			"systems.csv": `system,contains_phi,encrypted_at_rest,audit_logging
ehr-primary,true,true,true
billing-db,true,true,false
intranet-wiki,false,false,false
`,
			"access.csv": `username,role,phi_access
alice,clinician,true
bob,marketing,true
carol,billing,true
dave,engineering,false
`,
		},
	},
	"gdpr": {
		rulesFile: "gdpr.yaml",
		rules: `# GDPR starter rules: lawful basis and retention.
rules:
  - id: gdpr-consent-required
    name: Marketing data requires recorded consent
    severity: CRITICAL
    condition: consent_recorded == True
    filter: purpose == "marketing"
    data_source: records.csv
    tags: [gdpr, art6]

  - id: gdpr-retention-limit
    name: Personal data kept no longer than its retention period
    severity: HIGH
    condition: age_days <= retention_days
    data_source: records.csv
    tags: [gdpr, art5]

  - id: gdpr-transfer-safeguards
    name: Cross-border transfers need an adequacy safeguard
    severity: HIGH
    condition: safeguard in ["scc", "adequacy", "bcr"]
    filter: transferred_outside_eea == True
    data_source: records.csv
    tags: [gdpr, art44]

tests:
  - name: consented marketing record passes
    rule: gdpr-consent-required
    row: {purpose: marketing, consent_recorded: true}
    want: pass
  - name: unconsented marketing record violates
    rule: gdpr-consent-required
    row: {purpose: marketing, consent_recorded: false}
    want: violation
  - name: over-retained record violates
    rule: gdpr-retention-limit
    row: {age_days: 400, retention_days: 365}
    want: violation
`,
		data: map[string]string{
			"records.csv": `record_id,purpose,consent_recorded,age_days,retention_days,transferred_outside_eea,safeguard
r-1001,marketing,true,120,365,false,
r-1002,marketing,false,30,365,false,
r-1003,support,true,400,365,true,scc
r-1004,analytics,true,500,365,true,none
`,
		},
	},
	"iso27001": {
		rulesFile: "iso27001.yaml",
		rules: `# ISO 27001 starter rules: asset management (A.5, A.8).
rules:
  - id: iso-asset-owner
    name: Every asset must have an owner
    severity: HIGH
    condition: owner != Null
    data_source: assets.csv
    tags: [iso27001, a5.9]

  - id: iso-asset-classified
    name: Assets must carry a valid classification
    severity: MEDIUM
    condition: classification in ["public", "internal", "confidential", "restricted"]
    data_source: assets.csv
    tags: [iso27001, a5.12]

  - id: iso-risk-assessed
    name: Confidential assets risk-assessed within a year
    severity: HIGH
    condition: days_since_risk_assessment <= 365
    filter: classification in ["confidential", "restricted"]
    data_source: assets.csv
    tags: [iso27001, a8.8]

tests:
  - name: owned asset passes
    rule: iso-asset-owner
    row: {owner: alice}
    want: pass
  - name: unowned asset violates
    rule: iso-asset-owner
    row: {asset: hr-fileshare}
    want: violation
  - name: classified asset passes
    rule: iso-asset-classified
    row: {classification: internal}
    want: pass
  - name: unknown classification violates
    rule: iso-asset-classified
    row: {classification: secret}
    want: violation
  - name: public asset skips risk assessment check
    rule: iso-risk-assessed
    row: {classification: public, days_since_risk_assessment: 900}
    want: excluded
`,
		data: map[string]string{
			"assets.csv": `asset,owner,classification,days_since_risk_assessment
crm-database,alice,confidential,100
public-website,bob,public,800
hr-fileshare,,restricted,500
build-server,carol,internal,200
`,
		},
	},
}

func initProject(cmd *cobra.Command, args []string) error {
	tmpl := genericTemplate
	if initFlags.template != "" {
		var ok bool
		tmpl, ok = initTemplates[initFlags.template]
		if !ok {
			return fmt.Errorf("unknown template %q (expected %s)", initFlags.template, strings.Join(templateNames(), ", "))
		}
	}

	type scaffoldFile struct {
		path    string
		content string
	}
	files := []scaffoldFile{
		{cfgFile, initConfig},
		{filepath.Join("rules", tmpl.rulesFile), tmpl.rules},
	}
	dataNames := make([]string, 0, len(tmpl.data))
	for name := range tmpl.data {
		dataNames = append(dataNames, name)
	}
	sort.Strings(dataNames)
	for _, name := range dataNames {
		files = append(files, scaffoldFile{filepath.Join("data", name), tmpl.data[name]})
	}

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil && !initFlags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", f.path)
		}
	}

	for _, f := range files {
		if dir := filepath.Dir(f.path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		fmt.Printf("created %s\n", f.path)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  vigil lint --dir rules/")
	fmt.Println("  vigil test --path rules/")
	fmt.Println("  vigil run")
	return nil
}

func templateNames() []string {
	names := make([]string, 0, len(initTemplates))
	for name := range initTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
