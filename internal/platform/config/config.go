package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// defaultExpenseCategories matches the category list the expense forms offer
// out of the box. Override with EXPENSE_CATEGORIES (comma separated).
var defaultExpenseCategories = []string{
	"飞机", "火车", "长途汽车", "Taxi", "餐饮", "住宿", "办公用品", "客户招待", "员工福利", "其他",
}

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	EnableDBCheck     bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// ApprovalThreshold is the report total above which a manager approval
	// escalates to partner review instead of finalizing.
	ApprovalThreshold decimal.Decimal

	// ExpenseCategories is the list offered in expense forms.
	ExpenseCategories []string

	// Receipt storage
	ReceiptStorageDir string
	ReceiptURLTTL     time.Duration

	// External OAuth Providers
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL    string `mapstructure:"FRONTEND_BASE_URL"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "expense-flow-app")
	viper.SetDefault("APPROVAL_THRESHOLD", "5000")
	viper.SetDefault("EXPENSE_CATEGORIES", "")
	viper.SetDefault("RECEIPT_STORAGE_DIR", "./data/receipts")
	viper.SetDefault("RECEIPT_URL_TTL", "60s")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	thresholdStr := viper.GetString("APPROVAL_THRESHOLD")
	threshold, err := decimal.NewFromString(thresholdStr)
	if err != nil || threshold.IsNegative() {
		threshold = decimal.NewFromInt(5000)
		log.Printf("Warning: Invalid value for APPROVAL_THRESHOLD ('%s'). Defaulting to %s.\n", thresholdStr, threshold.String())
	}
	cfg.ApprovalThreshold = threshold

	cfg.ExpenseCategories = parseCategories(viper.GetString("EXPENSE_CATEGORIES"))

	cfg.ReceiptStorageDir = viper.GetString("RECEIPT_STORAGE_DIR")

	receiptTTLStr := viper.GetString("RECEIPT_URL_TTL")
	receiptTTL, err := time.ParseDuration(receiptTTLStr)
	if err != nil || receiptTTL <= 0 {
		receiptTTL = 60 * time.Second
		log.Printf("Warning: Invalid value for RECEIPT_URL_TTL ('%s'). Defaulting to %s.\n", receiptTTLStr, receiptTTL.String())
	}
	cfg.ReceiptURLTTL = receiptTTL

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		log.Println("Warning: Google OAuth env vars not fully set. Google sign-in will not function.")
	}

	return cfg, nil
}

func parseCategories(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return defaultExpenseCategories
	}
	var cats []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		return defaultExpenseCategories
	}
	return cats
}
