package domain

// Identity аутентифицированный субъект, который кладется в контекст запроса
type Identity struct {
	PrincipalID string
	Username    string
	Role        Role
	UserType    UserType
	SessionID   string
}

// Principal субъект из справочника врачей или пациентов
type Principal interface {
	Identity() Identity
	CredentialHash() string
}

// DoctorPrincipal врач. Врач с IsAdmin получает роль ADMIN.
type DoctorPrincipal struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	IsAdmin      bool
}

// Identity возвращает идентичность врача
func (d *DoctorPrincipal) Identity() Identity {
	role := RoleDoctor
	if d.IsAdmin {
		role = RoleAdmin
	}
	return Identity{
		PrincipalID: d.ID,
		Username:    d.Username,
		Role:        role,
		UserType:    UserTypeDoctor,
	}
}

// CredentialHash возвращает bcrypt хеш пароля
func (d *DoctorPrincipal) CredentialHash() string {
	return d.PasswordHash
}

// PatientPrincipal пациент
type PatientPrincipal struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
}

// Identity возвращает идентичность пациента
func (p *PatientPrincipal) Identity() Identity {
	return Identity{
		PrincipalID: p.ID,
		Username:    p.Username,
		Role:        RolePatient,
		UserType:    UserTypePatient,
	}
}

// CredentialHash возвращает bcrypt хеш пароля
func (p *PatientPrincipal) CredentialHash() string {
	return p.PasswordHash
}
