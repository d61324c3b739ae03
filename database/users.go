package database

import (
	"driftchat/models"
)

// CreateUser inserts a new user into the database
func CreateUser(username, fullName, email, password string) (*models.User, error) {
	result, err := DB.Exec(
		"INSERT INTO users (username, full_name, email, password) VALUES (?, ?, ?, ?)",
		username, fullName, email, password,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return GetUserByID(id)
}

// GetUserByID retrieves a user by their ID
func GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	err := DB.QueryRow(
		"SELECT id, username, full_name, email, password, profile_pic, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.Password, &user.ProfilePic, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username
func GetUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := DB.QueryRow(
		"SELECT id, username, full_name, email, password, profile_pic, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.Password, &user.ProfilePic, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email
func GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := DB.QueryRow(
		"SELECT id, username, full_name, email, password, profile_pic, created_at FROM users WHERE email = ?",
		email,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.Password, &user.ProfilePic, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every user except the given one, for the sidebar
func ListUsers(exceptID int64) ([]models.UserResponse, error) {
	rows, err := DB.Query(
		"SELECT id, username, full_name, email, profile_pic, created_at FROM users WHERE id != ? ORDER BY username",
		exceptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserResponse
	for rows.Next() {
		var user models.UserResponse
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.ProfilePic, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SearchUsers searches for users by username
func SearchUsers(query string, currentUserID int64) ([]models.UserResponse, error) {
	rows, err := DB.Query(
		`SELECT id, username, full_name, email, profile_pic, created_at FROM users
		WHERE username LIKE ? AND id != ? LIMIT 20`,
		"%"+query+"%", currentUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserResponse
	for rows.Next() {
		var user models.UserResponse
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.ProfilePic, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile updates the mutable profile fields of a user
func UpdateProfile(id int64, fullName, username, profilePic string) (*models.User, error) {
	_, err := DB.Exec(
		"UPDATE users SET full_name = ?, username = ?, profile_pic = ? WHERE id = ?",
		fullName, username, profilePic, id,
	)
	if err != nil {
		return nil, err
	}
	return GetUserByID(id)
}
