package kafka

// Topic definitions for Kafka event streaming
const (
	// Intake: applications ready for risk assessment
	TopicApplicationsSubmitted = "applications.submitted"

	// Assessment lifecycle events
	TopicAssessmentStarted   = "assessments.started"
	TopicAssessmentProgress  = "assessments.progress"
	TopicAssessmentCompleted = "assessments.completed"

	// Servicer-facing notifications
	TopicServicerNotifications = "servicer.notifications"
)
