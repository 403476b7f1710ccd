package model

type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Ctime        int64  `json:"ctime"`
}
