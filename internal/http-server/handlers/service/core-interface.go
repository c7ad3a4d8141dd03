package service

type Core interface {
	EnvVars() (verifyToken string, graphToken string)
}
