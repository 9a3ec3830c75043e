package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

const userColumns = `id, email, password_hash, full_name, COALESCE(phone, ''), COALESCE(avatar, ''),
	role, created_at, updated_at, version`

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Avatar,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
}

func CreateUser(ctx context.Context, db *sql.DB, email, passwordHash, fullName, phone, role string) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, phone, role, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW(), 1)
		 RETURNING `+userColumns,
		strings.ToLower(email), passwordHash, fullName, nullString(phone), role), user)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Role == models.RoleSeller {
		profile, err := GetSellerProfile(ctx, db, user.ID)
		if err != nil && err != database.ErrUserNotFound {
			return nil, err
		}
		user.SellerProfile = profile
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

const sellerProfileColumns = `id, user_id, shop_name, COALESCE(description, ''), COALESCE(kyc_document, ''),
	kyc_status, approved_at, created_at, updated_at`

func GetSellerProfile(ctx context.Context, db *sql.DB, userID int64) (*models.SellerProfile, error) {
	profile := &models.SellerProfile{}
	var approvedAt sql.NullTime

	err := db.QueryRowContext(ctx,
		`SELECT `+sellerProfileColumns+` FROM seller_profiles WHERE user_id = $1`, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.ShopName,
		&profile.Description,
		&profile.KYCDocument,
		&profile.KYCStatus,
		&approvedAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get seller profile: %w", err)
	}
	if approvedAt.Valid {
		profile.ApprovedAt = &approvedAt.Time
	}

	return profile, nil
}

// SubmitKYC upserts the seller sub-profile and resets its status to
// PENDING for staff review.
func SubmitKYC(ctx context.Context, db *sql.DB, userID int64, shopName, description, kycDocument string) (*models.SellerProfile, error) {
	if shopName == "" {
		shopName = "Cua hang"
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO seller_profiles (user_id, shop_name, description, kyc_document, kyc_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   shop_name = COALESCE(NULLIF(EXCLUDED.shop_name, ''), seller_profiles.shop_name),
		   description = COALESCE(EXCLUDED.description, seller_profiles.description),
		   kyc_document = COALESCE(EXCLUDED.kyc_document, seller_profiles.kyc_document),
		   kyc_status = $5,
		   approved_at = NULL,
		   updated_at = NOW()`,
		userID, shopName, nullString(description), nullString(kycDocument), models.KYCStatusPending)
	if err != nil {
		return nil, fmt.Errorf("submit kyc: %w", err)
	}

	return GetSellerProfile(ctx, db, userID)
}

// SetKYCStatus is the staff/admin review action; APPROVED stamps
// approved_at, any other status clears it.
func SetKYCStatus(ctx context.Context, db *sql.DB, userID int64, status string) (*models.SellerProfile, error) {
	var approvedAt any
	if status == models.KYCStatusApproved {
		approvedAt = time.Now()
	}

	result, err := db.ExecContext(ctx,
		`UPDATE seller_profiles SET kyc_status = $1, approved_at = $2, updated_at = NOW() WHERE user_id = $3`,
		status, approvedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("set kyc status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrUserNotFound
	}

	return GetSellerProfile(ctx, db, userID)
}

type UserFilter struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

func ListUsers(ctx context.Context, db *sql.DB, filter UserFilter) (*OffsetPage, error) {
	page, limit := ClampPage(filter.Page, filter.Limit, 20, 100)

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Role != "" {
		where = append(where, "role = "+arg(filter.Role))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(email ILIKE %[1]s OR full_name ILIKE %[1]s OR phone ILIKE %[1]s)", p))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + whereClause +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s`, arg(limit), arg((page-1)*limit))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range users {
		if users[i].Role != models.RoleSeller {
			continue
		}
		profile, err := GetSellerProfile(ctx, db, users[i].ID)
		if err != nil && err != database.ErrUserNotFound {
			return nil, err
		}
		users[i].SellerProfile = profile
	}

	return &OffsetPage{
		Items:      users,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

type UpdateUserRequest struct {
	FullName *string
	Phone    *string
	Avatar   *string
	Role     *string
}

func UpdateUser(ctx context.Context, db *sql.DB, id int64, req UpdateUserRequest) (*models.User, error) {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.FullName != nil {
		sets = append(sets, "full_name = "+arg(*req.FullName))
	}
	if req.Phone != nil {
		sets = append(sets, "phone = "+arg(*req.Phone))
	}
	if req.Avatar != nil {
		sets = append(sets, "avatar = "+arg(*req.Avatar))
	}
	if req.Role != nil {
		sets = append(sets, "role = "+arg(*req.Role))
	}

	if len(sets) == 0 {
		return GetUser(ctx, db, id)
	}
	sets = append(sets, "updated_at = NOW()", "version = version + 1")

	result, err := db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = %s`, strings.Join(sets, ", "), arg(id)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrUserNotFound
	}

	return GetUser(ctx, db, id)
}
