package agents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"meridian/internal/adapters/ai"
	"meridian/internal/domain/application"
	"meridian/internal/domain/creditreport"
)

// resultSchemaInstruction is appended to every dimension system prompt.
const resultSchemaInstruction = `
You must respond with valid JSON matching this schema:
{
  "score": <number 0-100>,
  "positive_factors": [<list of strings>],
  "risk_factors": [<list of strings>],
  "mitigating_factors": [<list of strings>],
  "explanation": "<string summarizing your analysis>"
}

Scoring guide:
- 90-100: Excellent, minimal risk
- 70-89: Good, low risk
- 50-69: Moderate, some concerns
- 30-49: Poor, significant risk factors
- 0-29: Very poor, major risk flags

Be specific and quantitative in your factors. Reference actual data values.
`

// riskAxisSchemaInstruction replaces the standard guide for fraud screening,
// where the score measures exposure rather than quality.
const riskAxisSchemaInstruction = `
You must respond with valid JSON matching this schema:
{
  "score": <number 0-100>,
  "positive_factors": [<list of strings>],
  "risk_factors": [<list of strings>],
  "mitigating_factors": [<list of strings>],
  "explanation": "<string summarizing your analysis>"
}

The score measures FRAUD EXPOSURE, not applicant quality:
- 0-19: No meaningful fraud indicators
- 20-39: Minor inconsistencies worth noting
- 40-59: Several indicators, verification recommended
- 60-79: Strong indicators, manual fraud review required
- 80-100: Severe indicators, likely misrepresentation

Be specific and quantitative in your factors. Reference actual data values.
`

func formatCurrency(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

func formatPct(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

// fieldText renders a section value that may arrive as either a string
// or a number in the source JSON.
func fieldText(section map[string]any, key string) string {
	if s := application.StringField(section, key); s != "" {
		return s
	}
	if n := application.NumberField(section, key); n != 0 {
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	}
	return "Not provided"
}

func messages(system, user string) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: user},
	}
}

// bureauSection renders the shared credit bureau block, empty when no
// report was pulled.
func bureauSection(report *creditreport.Report) string {
	if report == nil {
		return ""
	}
	s := report.Summary
	factors := report.ScoreFactors
	if len(factors) > 4 {
		factors = factors[:4]
	}
	factorLine := "N/A"
	if len(factors) > 0 {
		factorLine = strings.Join(factors, "; ")
	}

	return fmt.Sprintf(`
**Credit Bureau Report (%s):**
- Bureau Score: %d
- Credit Utilization: %.1f%%
- On-Time Payments: %.1f%%
- Late Payments (30/60/90+ days): %d/%d/%d
- Total Accounts: %d (%d open)
- Tradelines: %d
- Oldest Account: %d years %d months
- Average Account Age: %d years %d months
- Public Records: %d
- Score Factors: %s
`,
		report.ScoreModel, report.Score, s.CreditUtilization, s.OnTimePaymentsPct,
		s.LatePayments30, s.LatePayments60, s.LatePayments90,
		s.TotalAccounts, s.OpenAccounts, len(report.Tradelines),
		s.OldestAccountMonths/12, s.OldestAccountMonths%12,
		s.AvgAccountAgeMonths/12, s.AvgAccountAgeMonths%12,
		len(report.PublicRecords), factorLine,
	)
}

func buildCreditHistoryPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	creditScore := "Not provided"
	if score, ok := snap.SelfReportedScore(); ok {
		creditScore = fmt.Sprintf("%d", score)
	}

	system := fmt.Sprintf(`You are a mortgage credit risk analyst AI. Analyze the applicant's credit profile
and provide a risk score from 0-100 with detailed factors.

%s

Credit scoring guidelines:
- 760+ credit score: Excellent (85-100 points)
- 700-759: Good (70-84 points)
- 660-699: Fair (55-69 points)
- 620-659: Below average (35-54 points)
- Below 620: Poor (0-34 points)

Important: When bureau data is available, use the bureau score as the primary indicator
rather than the self-reported score. Consider utilization, payment history, and account
age as additional factors. A borrower with past derogatory marks but clean recent
history (24+ months of on-time payments) may deserve recency-adjusted scoring.`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze this mortgage applicant's credit profile:

**Self-Reported Credit Score:** %s
**Bankruptcy History:** %s
**Foreclosure History:** %s
**Outstanding Judgments:** %s
**Delinquent Federal Debt:** %s
%s
**Loan Details:**
- Loan Amount: %s
- Loan Product: %s (%s)

Provide your credit risk assessment as JSON.`,
		creditScore,
		yesNo(snap.Declarations.HasBankruptcy),
		yesNo(snap.Declarations.HasForeclosure),
		yesNo(snap.Declarations.HasJudgments),
		yesNo(snap.Declarations.HasDelinquentDebt),
		bureauSection(report),
		formatCurrency(snap.LoanAmount),
		orNA(snap.LoanProduct.Name), orNA(snap.LoanProduct.Type),
	)

	return messages(system, user)
}

func buildEmploymentPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	emp := snap.EmploymentInfo

	var docLines []string
	for _, d := range snap.Documents {
		switch d.Type {
		case "pay_stub", "w2", "employment_letter":
			line := fmt.Sprintf("- %s: %s", d.Type, d.Status)
			if d.Confidence > 0 {
				line += fmt.Sprintf(" (confidence: %.0f%%)", d.Confidence*100)
			}
			docLines = append(docLines, line)
		}
	}
	docSummary := "No employment documents uploaded"
	if len(docLines) > 0 {
		docSummary = strings.Join(docLines, "\n")
	}

	incomeToLoan := "N/A"
	if snap.LoanAmount > 0 && snap.AnnualIncome() > 0 {
		incomeToLoan = formatPct(snap.AnnualIncome() / snap.LoanAmount * 100)
	}

	system := fmt.Sprintf(`You are a mortgage employment verification analyst AI. Evaluate the stability
and reliability of the applicant's employment and income.

%s

Employment scoring guidelines:
- Stable full-time employment 5+ years at same employer: 85-100
- Full-time employment 2-5 years: 70-84
- Full-time employment < 2 years: 55-69
- Self-employed with 2+ years history: 60-80
- Self-employed < 2 years: 35-55
- Unemployed or gaps in employment: 0-40

Consider income-to-loan ratio: higher income relative to loan = lower risk.
Verified income (via documents) is more reliable than self-reported.`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze this mortgage applicant's employment profile:

**Employment Status:** %s
**Employer:** %s
**Job Title:** %s
**Years at Current Job:** %.1f
**Annual Income:** %s
**Previous Employer:** %s

**Supporting Documents:**
%s

**Loan Context:**
- Loan Amount: %s
- Income-to-Loan Ratio: %s

Provide your employment risk assessment as JSON.`,
		orNotProvided(application.StringField(emp, "employment_status")),
		orNotProvided(application.StringField(emp, "employer_name")),
		orNotProvided(application.StringField(emp, "job_title")),
		snap.EmploymentYears(),
		formatCurrency(snap.AnnualIncome()),
		orNotProvided(application.StringField(emp, "previous_employer")),
		docSummary,
		formatCurrency(snap.LoanAmount),
		incomeToLoan,
	)

	return messages(system, user)
}

func buildFinancialHealthPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	debts := snap.MonthlyDebts()
	var debtLines []string
	keys := make([]string, 0, len(debts))
	for k := range debts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		debtLines = append(debtLines, fmt.Sprintf("  - %s: %s", titleLabel(k), formatCurrency(debts[k])))
	}
	debtBreakdown := "  Not provided"
	if len(debtLines) > 0 {
		debtBreakdown = strings.Join(debtLines, "\n")
	}

	var docLines []string
	for _, d := range snap.Documents {
		switch d.Type {
		case "bank_statement", "tax_return", "proof_of_assets":
			line := fmt.Sprintf("- %s: %s", d.Type, d.Status)
			if d.Confidence > 0 {
				line += fmt.Sprintf(" (%.0f%%)", d.Confidence*100)
			}
			docLines = append(docLines, line)
		}
	}
	docSummary := "No financial documents uploaded"
	if len(docLines) > 0 {
		docSummary = strings.Join(docLines, "\n")
	}

	system := fmt.Sprintf(`You are a mortgage financial health analyst AI. Evaluate the applicant's
overall financial position including debt-to-income ratio, assets, and reserves.

%s

Financial health scoring guidelines:
- DTI <= 28%%: Excellent front-end ratio (85-100)
- DTI 28-36%%: Good (70-84)
- DTI 36-43%%: Acceptable for most programs (50-69)
- DTI 43-50%%: High, may qualify with compensating factors (30-49)
- DTI > 50%%: Very high risk (0-29)

Also consider:
- Liquid reserves (months of mortgage payments covered)
- Total assets relative to loan amount
- Savings patterns and financial stability`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze this mortgage applicant's financial health:

**Income:**
- Annual Income: %s
- Monthly Income: %s

**Monthly Debts:**
%s
- Total Monthly Obligations: %s

**DTI Ratio:** %s

**Assets:**
- Total Assets: %s
- Liquid Assets: %s
- Retirement Accounts: %s

**Loan Details:**
- Loan Amount: %s
- Down Payment: %s

**Financial Documents:**
%s

Provide your financial health assessment as JSON.`,
		formatCurrency(snap.AnnualIncome()),
		formatCurrency(snap.MonthlyIncome()),
		debtBreakdown,
		formatCurrency(snap.TotalMonthlyDebt()),
		formatPct(snap.DTIRatio),
		formatCurrency(application.NumberField(snap.FinancialInfo, "total_assets")),
		formatCurrency(snap.LiquidAssets()),
		formatCurrency(application.NumberField(snap.FinancialInfo, "retirement_accounts")),
		formatCurrency(snap.LoanAmount),
		formatCurrency(snap.DownPayment),
		docSummary,
	)

	return messages(system, user)
}

func buildPropertyPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	prop := snap.PropertyInfo
	price := snap.PurchasePrice()

	ltv := "N/A"
	pmi := "Unknown"
	if price > 0 {
		v := (price - snap.DownPayment) / price * 100
		ltv = formatPct(v)
		pmi = yesNo(v > 80)
	}

	var docLines []string
	for _, d := range snap.Documents {
		if d.Type == "purchase_agreement" {
			docLines = append(docLines, fmt.Sprintf("- %s: %s", d.Type, d.Status))
		}
	}
	docSummary := "No property documents uploaded"
	if len(docLines) > 0 {
		docSummary = strings.Join(docLines, "\n")
	}

	system := fmt.Sprintf(`You are a mortgage property risk analyst AI. Evaluate the property as collateral
and assess property-related risk factors.

%s

Property scoring guidelines:
- Single-family primary residence with LTV < 80%%: 85-100
- Primary residence with LTV 80-90%%: 70-84
- Primary residence with LTV 90-95%%: 55-69
- Investment property or high LTV: 30-54
- Non-standard property types or very high LTV: 0-29

Property type risk (low to high):
Single Family < Townhouse < Condo < Multi-Family < Manufactured

Usage risk (low to high):
Primary Residence < Secondary Home < Investment Property`,
		resultSchemaInstruction)

	usage := application.StringField(prop, "usage_type")
	if usage == "" {
		usage = application.StringField(prop, "property_use")
	}

	user := fmt.Sprintf(`Analyze this mortgage property:

**Property Details:**
- Type: %s
- Usage: %s
- Address: %s
- Year Built: %s

**Financial:**
- Purchase Price: %s
- Down Payment: %s
- Loan Amount: %s
- Loan-to-Value (LTV): %s

**PMI Required:** %s

**Property Documents:**
%s

**Loan Product:** %s (%s)

Provide your property risk assessment as JSON.`,
		orNotProvided(application.StringField(prop, "property_type")),
		orNotProvided(usage),
		orNotProvided(application.StringField(prop, "address")),
		fieldText(prop, "year_built"),
		formatCurrency(price),
		formatCurrency(snap.DownPayment),
		formatCurrency(snap.LoanAmount),
		ltv,
		pmi,
		docSummary,
		orNA(snap.LoanProduct.Name), orNA(snap.LoanProduct.Type),
	)

	return messages(system, user)
}

func buildApplicantProfilePrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	personal := snap.PersonalInfo
	emp := snap.EmploymentInfo
	fin := snap.FinancialInfo

	var docLines []string
	for _, d := range snap.Documents {
		if d.Type == "government_id" {
			docLines = append(docLines, fmt.Sprintf("- %s: %s", d.Type, d.Status))
		}
	}
	docSummary := "No identity documents uploaded"
	if len(docLines) > 0 {
		docSummary = strings.Join(docLines, "\n")
	}

	complete := func(ok bool) string {
		if ok {
			return "Complete"
		}
		return "Incomplete"
	}

	creditScore := "Not provided"
	if score, ok := snap.SelfReportedScore(); ok {
		creditScore = fmt.Sprintf("%d", score)
	}

	system := fmt.Sprintf(`You are a mortgage applicant profile analyst AI. Evaluate the overall borrower
profile considering stability indicators, completeness of application, and holistic risk factors.

%s

Applicant profile scoring considerations:
- First-time homebuyer: neutral to slightly positive (government programs available)
- Complete documentation: positive indicator
- Stable residential history: positive indicator
- US citizen or permanent resident: standard processing
- Consistent information across all sections: positive indicator
- Co-borrower present: can strengthen application

Note: Do NOT discriminate based on protected classes. Focus only on financial
stability indicators and application completeness.`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze this mortgage applicant's overall profile:

**Personal Information:**
- Name: %s %s
- Date of Birth: %s
- Marital Status: %s
- Dependents: %s
- Citizenship: %s

**Residential History:**
- Current Address: %s
- Years at Current Address: %s

**Employment Summary:**
- Status: %s
- Years at Current Job: %.1f

**Financial Summary:**
- Annual Income: %s
- Credit Score: %s
- Total Assets: %s

**Declarations:**
- Outstanding Judgments: %s
- Party to Lawsuit: %s
- Alimony/Child Support Obligations: %s

**Identity Documents:**
%s

**Application Completeness:**
- Personal info: %s
- Employment: %s
- Financial: %s
- Property: %s

Provide your applicant profile assessment as JSON.`,
		application.StringField(personal, "first_name"),
		application.StringField(personal, "last_name"),
		orNotProvided(application.StringField(personal, "date_of_birth")),
		orNotProvided(application.StringField(personal, "marital_status")),
		fieldText(personal, "dependents"),
		orNotProvided(application.StringField(personal, "citizenship_status")),
		orNotProvided(application.StringField(personal, "current_address")),
		fieldText(personal, "years_at_address"),
		orNotProvided(application.StringField(emp, "employment_status")),
		snap.EmploymentYears(),
		formatCurrency(snap.AnnualIncome()),
		creditScore,
		formatCurrency(application.NumberField(fin, "total_assets")),
		yesNo(snap.Declarations.HasJudgments),
		yesNo(snap.Declarations.IsPartyToLawsuit),
		yesNo(snap.Declarations.HasAlimonyObligation),
		docSummary,
		complete(application.StringField(personal, "first_name") != ""),
		complete(application.StringField(emp, "employment_status") != ""),
		complete(snap.AnnualIncome() > 0 || creditScore != "Not provided"),
		complete(application.StringField(snap.PropertyInfo, "property_type") != ""),
	)

	return messages(system, user)
}

func buildRegulatoryCompliancePrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	uploaded := make(map[string]bool)
	processed := 0
	incomeDocs := 0
	for _, d := range snap.Documents {
		uploaded[d.Type] = true
		if d.Status == application.DocumentStatusProcessed {
			processed++
		}
		switch d.Type {
		case "pay_stub", "w2", "tax_return", "employment_letter":
			incomeDocs++
		}
	}

	missing := func(types []string) string {
		var out []string
		for _, t := range types {
			if !uploaded[t] {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return "None"
		}
		return strings.Join(out, ", ")
	}

	usage := application.StringField(snap.PropertyInfo, "usage_type")
	if usage == "" {
		usage = application.StringField(snap.PropertyInfo, "property_use")
	}

	system := fmt.Sprintf(`You are a mortgage regulatory compliance analyst AI. Check the application
for regulatory requirements, documentation completeness, and compliance flags.

%s

Regulatory compliance scoring:
- All required docs present, no regulatory flags: 85-100
- Minor documentation gaps, no compliance issues: 70-84
- Some documentation missing, minor compliance concerns: 50-69
- Significant documentation gaps or compliance flags: 30-49
- Major regulatory issues or incomplete application: 0-29

Key regulations to consider:
- TILA (Truth in Lending Act): proper disclosure requirements
- RESPA: real estate settlement procedures
- ECOA: equal credit opportunity (no discrimination)
- HMDA: home mortgage disclosure requirements
- QM rules: qualified mortgage standards (DTI limits, points/fees)
- BSA/AML: anti-money laundering red flags
- Ability-to-Repay rule: borrower must demonstrate repayment ability`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Check this mortgage application for regulatory compliance:

**Documentation Status:**
- Required documents missing: %s
- Recommended documents missing: %s
- Total documents uploaded: %d
- Documents processed: %d

**Declarations & Compliance Flags:**
- Bankruptcy history: %s
- Foreclosure history: %s
- Outstanding judgments: %s
- Delinquent federal debt: %s
- Party to lawsuit: %s
- Alimony/child support obligation: %s
- Co-signer on other loans: %s

**QM Qualification Check:**
- DTI Ratio: %s (QM limit: 43%%)
- Loan Type: %s
- Loan Amount: %s

**Property:**
- Usage: %s
- Type: %s

**Income Verification:**
- Annual Income Reported: %s
- Income documents uploaded: %d

Provide your regulatory compliance assessment as JSON.`,
		missing([]string{"government_id", "pay_stub"}),
		missing([]string{"w2", "tax_return", "bank_statement"}),
		len(snap.Documents),
		processed,
		yesNo(snap.Declarations.HasBankruptcy),
		yesNo(snap.Declarations.HasForeclosure),
		yesNo(snap.Declarations.HasJudgments),
		yesNo(snap.Declarations.HasDelinquentDebt),
		yesNo(snap.Declarations.IsPartyToLawsuit),
		yesNo(snap.Declarations.HasAlimonyObligation),
		yesNo(snap.Declarations.IsCosigner),
		formatPct(snap.DTIRatio),
		orNA(snap.LoanProduct.Type),
		formatCurrency(snap.LoanAmount),
		orNA(usage),
		orNA(application.StringField(snap.PropertyInfo, "property_type")),
		formatCurrency(snap.AnnualIncome()),
		incomeDocs,
	)

	return messages(system, user)
}

func buildDocumentQualityPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	var inventory []string
	processed := 0
	errored := 0
	uploaded := make(map[string]bool)
	for _, d := range snap.Documents {
		uploaded[d.Type] = true
		line := fmt.Sprintf("- %s: %s", d.Type, d.Status)
		if d.Confidence > 0 {
			line += fmt.Sprintf(" | confidence: %.0f%%", d.Confidence*100)
		}
		inventory = append(inventory, line)
		switch d.Status {
		case application.DocumentStatusProcessed:
			processed++
		case application.DocumentStatusFailed:
			errored++
		}
	}
	inventoryText := "No documents uploaded"
	if len(inventory) > 0 {
		inventoryText = strings.Join(inventory, "\n")
	}

	allTypes := []string{
		"government_id", "pay_stub", "w2", "tax_return",
		"bank_statement", "employment_letter", "proof_of_assets",
		"purchase_agreement",
	}
	var missing []string
	for _, t := range allTypes {
		if !uploaded[t] {
			missing = append(missing, t)
		}
	}
	missingText := "None - all standard types present"
	if len(missing) > 0 {
		sort.Strings(missing)
		missingText = strings.Join(missing, ", ")
	}

	system := fmt.Sprintf(`You are a mortgage document quality analyst AI. Evaluate the completeness,
quality, and reliability of the documentation provided with this application.

%s

Document quality scoring:
- All key documents present and processed with high confidence: 85-100
- Most documents present, good extraction quality: 70-84
- Some important documents missing or low quality: 50-69
- Many documents missing or processing errors: 30-49
- Critical documents missing, unable to verify: 0-29

Key documents for mortgage applications:
1. Government ID (required for identity verification)
2. Pay stubs (required for income verification)
3. W-2 forms (required for income history)
4. Tax returns (required for self-employed or complex income)
5. Bank statements (required for asset verification)
6. Employment letter (supporting document)
7. Purchase agreement (required for purchase transactions)`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze the document package for this mortgage application:

**Document Inventory (%d total):**
%s

**Missing Document Types:**
%s

**Processing Results:**
- Successfully processed: %d
- Processing errors: %d
- Pending/uploaded: %d

**Application Context:**
- Application Status: %s
- Employment Type: %s
  (self-employed applicants need additional documentation like tax returns)

Provide your document quality assessment as JSON.`,
		len(snap.Documents),
		inventoryText,
		missingText,
		processed,
		errored,
		len(snap.Documents)-processed-errored,
		snap.Status,
		orNA(application.StringField(snap.EmploymentInfo, "employment_status")),
	)

	return messages(system, user)
}

func buildCreditHistoryDepthPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	system := fmt.Sprintf(`You are a mortgage credit depth analyst AI. Evaluate how established the
applicant's credit file is: account count, account mix, and file age.

%s

Credit depth scoring guidelines:
- 10+ years oldest account, 5+ accounts, mixed types: 85-100
- 5-10 years history with several accounts: 70-84
- 3-5 years history or limited account mix: 50-69
- Under 3 years or very few accounts (thin file): 30-49
- Nearly empty file, cannot establish track record: 0-29

A thin file is a risk in itself: there is not enough history to predict
repayment behavior, regardless of how clean the existing accounts look.`,
		resultSchemaInstruction)

	var user string
	if report == nil {
		user = `Analyze this applicant's credit file depth:

**Credit Bureau Report:** Unavailable - the bureau pull failed for this attempt.

Without bureau data the file depth cannot be established. Score neutrally
(around 50) and flag the missing bureau data as a risk factor.

Provide your credit depth assessment as JSON.`
	} else {
		typeCounts := make(map[string]int)
		for _, t := range report.Tradelines {
			typeCounts[t.AccountType]++
		}
		var mixLines []string
		for _, at := range []string{
			creditreport.AccountTypeRevolving, creditreport.AccountTypeInstallment,
			creditreport.AccountTypeStudentLoan, creditreport.AccountTypeMortgage,
		} {
			if typeCounts[at] > 0 {
				mixLines = append(mixLines, fmt.Sprintf("- %s: %d", at, typeCounts[at]))
			}
		}

		user = fmt.Sprintf(`Analyze this applicant's credit file depth:
%s
**Account Mix:**
%s

**Inquiries (last 2 years):** %d

Provide your credit depth assessment as JSON.`,
			bureauSection(report),
			strings.Join(mixLines, "\n"),
			len(report.Inquiries),
		)
	}

	return messages(system, user)
}

func buildPaymentHistoryPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	system := fmt.Sprintf(`You are a mortgage payment history analyst AI. Payment history is the
strongest single predictor of mortgage default. Evaluate the applicant's
record of paying on time.

%s

Payment history scoring guidelines:
- 99.5%%+ on-time, no 60/90-day lates: 90-100
- 97-99.5%% on-time, isolated 30-day lates: 70-89
- 93-97%% on-time or any 60-day late: 50-69
- Repeated lates or any 90-day late: 30-49
- Chronic delinquency, collections, charge-offs: 0-29

Weight recent behavior more heavily than old lates: a late payment two
years ago matters less than one last quarter.`,
		resultSchemaInstruction)

	var user string
	if report == nil {
		user = `Analyze this applicant's payment history:

**Credit Bureau Report:** Unavailable - the bureau pull failed for this attempt.

Without bureau data the payment record cannot be verified. Score neutrally
(around 50) and flag the missing bureau data as a risk factor.

Provide your payment history assessment as JSON.`
	} else {
		s := report.Summary

		// Per-tradeline recent record, most recent month first.
		var lines []string
		for _, t := range report.Tradelines {
			recent := t.PaymentHistory
			if len(recent) > 12 {
				recent = recent[:12]
			}
			marks := make([]string, len(recent))
			for i, p := range recent {
				marks[i] = string(p)
			}
			lines = append(lines, fmt.Sprintf("- %s (%s): %s", t.Creditor, t.Status, strings.Join(marks, " ")))
		}

		user = fmt.Sprintf(`Analyze this applicant's payment history:

**Aggregate Record:**
- On-Time Payments: %.1f%%
- Late Payments 30 days: %d
- Late Payments 60 days: %d
- Late Payments 90+ days: %d
- Accounts in Collections: %d

**Last 12 Months Per Account (most recent first):**
%s

**Declared Delinquent Federal Debt:** %s

Provide your payment history assessment as JSON.`,
			s.OnTimePaymentsPct,
			s.LatePayments30, s.LatePayments60, s.LatePayments90,
			len(report.Collections),
			strings.Join(lines, "\n"),
			yesNo(snap.Declarations.HasDelinquentDebt),
		)
	}

	return messages(system, user)
}

func buildEarningPotentialPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	emp := snap.EmploymentInfo

	system := fmt.Sprintf(`You are a mortgage earning potential analyst AI. Beyond current income,
evaluate the trajectory: is this applicant's income likely to grow, hold,
or decline over the loan term?

%s

Earning potential scoring guidelines:
- Growing field, senior role or clear progression, high income: 85-100
- Stable professional career with normal raises expected: 70-84
- Flat trajectory or income at market ceiling for role: 50-69
- Declining industry, gig income, or erratic history: 30-49
- No reliable income trajectory to evaluate: 0-29

Consider job title seniority, industry, tenure pattern across employers,
and income relative to the requested loan.`,
		resultSchemaInstruction)

	user := fmt.Sprintf(`Analyze this applicant's earning potential:

**Current Position:**
- Job Title: %s
- Employer: %s
- Employment Status: %s
- Years at Current Job: %.1f
- Previous Employer: %s

**Income:**
- Annual Income: %s
- Income-to-Loan Ratio: %s

**Loan Term:** %d months

Provide your earning potential assessment as JSON.`,
		orNotProvided(application.StringField(emp, "job_title")),
		orNotProvided(application.StringField(emp, "employer_name")),
		orNotProvided(application.StringField(emp, "employment_status")),
		snap.EmploymentYears(),
		orNotProvided(application.StringField(emp, "previous_employer")),
		formatCurrency(snap.AnnualIncome()),
		formatPct(safeRatio(snap.AnnualIncome(), snap.LoanAmount)*100),
		snap.LoanProduct.TermMonths,
	)

	return messages(system, user)
}

func buildFraudRiskPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	system := fmt.Sprintf(`You are a mortgage fraud screening analyst AI. Evaluate the application for
misrepresentation and identity risk using the bureau's fraud indicators.

%s

Anchor your score on the bureau fraud score when available; adjust only
when the application data gives concrete reason to. A score of 60 or above
triggers mandatory denial, so reserve it for genuine indicators.`,
		riskAxisSchemaInstruction)

	var user string
	if report == nil {
		user = fmt.Sprintf(`Screen this mortgage application for fraud:

**Credit Bureau Report:** Unavailable - the bureau pull failed for this attempt.

Without bureau fraud indicators only a limited screen is possible. Score low
(around 30) unless the application data itself shows misrepresentation, and
flag the missing bureau data explicitly.

**Application Data:**
- Annual Income: %s
- Years at Current Job: %.1f
- Self-Reported Credit Score: %s

Provide your fraud screening as JSON.`,
			formatCurrency(snap.AnnualIncome()),
			snap.EmploymentYears(),
			selfReportedLabel(snap),
		)
	} else {
		var alertLines []string
		for _, a := range report.FraudAlerts {
			alertLines = append(alertLines, fmt.Sprintf("- [%s] %s: %s", a.Severity, a.Type, a.Description))
		}
		alertText := "None triggered"
		if len(alertLines) > 0 {
			alertText = strings.Join(alertLines, "\n")
		}

		user = fmt.Sprintf(`Screen this mortgage application for fraud:

**Bureau Fraud Score:** %d/100

**Bureau Fraud Alerts:**
%s

**Cross-Check Data:**
- Self-Reported Credit Score: %s
- Bureau Score: %d
- Annual Income: %s
- Years at Current Job: %.1f
- Recent Hard Inquiries: %d

Provide your fraud screening as JSON.`,
			report.FraudScore,
			alertText,
			selfReportedLabel(snap),
			report.Score,
			formatCurrency(snap.AnnualIncome()),
			snap.EmploymentYears(),
			len(report.Inquiries),
		)
	}

	return messages(system, user)
}

func buildCompensatingFactorsPrompt(snap *application.Snapshot, report *creditreport.Report) []ai.Message {
	system := fmt.Sprintf(`You are a mortgage compensating factors analyst AI. Identify strengths that
offset weaknesses elsewhere in the application: reserves, equity, recovery
from past derogatory credit, and payment headroom.

%s

Compensating factors scoring guidelines:
- Multiple strong offsets (12+ months reserves, 20%%+ down, recovery shown): 85-100
- One or two solid offsets: 70-84
- Some cushion but nothing decisive: 50-69
- Thin reserves and little equity: 30-49
- No compensating strength at all: 0-29

Recovery matters: past bankruptcy or foreclosure followed by a clean recent
payment record (12-24 months) shows rebuilt credit discipline. Name it
explicitly in mitigating factors when you see it.`,
		resultSchemaInstruction)

	bureauText := "Unavailable - the bureau pull failed; base the analysis on application data only."
	if report != nil {
		derogCount := len(report.PublicRecords)
		bureauText = fmt.Sprintf(`Public Records: %d | On-Time Payments: %.1f%% | Collections: %d
Score Factors: %s`,
			derogCount, report.Summary.OnTimePaymentsPct, len(report.Collections),
			strings.Join(report.ScoreFactors, "; "))
	}

	user := fmt.Sprintf(`Identify compensating factors in this mortgage application:

**Reserves & Assets:**
- Liquid Assets: %s
- Down Payment: %s
- Purchase Price: %s
- Total Assets: %s

**Payment Headroom:**
- DTI Ratio: %s
- Annual Income: %s
- Loan Amount: %s at %.2f%% for %d months

**Credit Recovery Signals:**
- Declared Bankruptcy: %s
- Declared Foreclosure: %s
- Bureau Data: %s

Provide your compensating factors assessment as JSON.`,
		formatCurrency(snap.LiquidAssets()),
		formatCurrency(snap.DownPayment),
		formatCurrency(snap.PurchasePrice()),
		formatCurrency(application.NumberField(snap.FinancialInfo, "total_assets")),
		formatPct(snap.DTIRatio),
		formatCurrency(snap.AnnualIncome()),
		formatCurrency(snap.LoanAmount),
		snap.LoanProduct.BaseRate,
		snap.LoanProduct.TermMonths,
		yesNo(snap.Declarations.HasBankruptcy),
		yesNo(snap.Declarations.HasForeclosure),
		bureauText,
	)

	return messages(system, user)
}

func selfReportedLabel(snap *application.Snapshot) string {
	if score, ok := snap.SelfReportedScore(); ok {
		return fmt.Sprintf("%d", score)
	}
	return "Not provided"
}

func safeRatio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// titleLabel turns an underscore_separated key into a Title Cased label.
func titleLabel(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
