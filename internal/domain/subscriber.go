package domain

// Subscriber pairs a validated name with a validated email.
// The zero value is never returned by NewSubscriber.
type Subscriber struct {
	name  SubscriberName
	email SubscriberEmail
}

// NewSubscriber validates both fields. The name is checked first, so when both
// fields are invalid the name error is the one reported.
func NewSubscriber(name, email string) (*Subscriber, error) {
	n, err := ParseSubscriberName(name)
	if err != nil {
		return nil, err
	}

	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return nil, err
	}

	return &Subscriber{name: n, email: e}, nil
}

// Name returns the subscriber's display name.
func (s *Subscriber) Name() string {
	return s.name.String()
}

// Email returns the subscriber's email address.
func (s *Subscriber) Email() string {
	return s.email.String()
}

// Address returns the validated email for use with the mailer.
func (s *Subscriber) Address() SubscriberEmail {
	return s.email
}
