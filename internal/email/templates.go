package email

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// WelcomeEmail is sent once a subscription has been stored.
type WelcomeEmail struct {
	Name     string
	ListName string
}

func (e WelcomeEmail) Subject() string {
	return "Welcome to " + e.ListName
}

func (e WelcomeEmail) TemplateName() string {
	return "welcome"
}
