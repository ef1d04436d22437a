package documents

// Lifecycle status of the stored file. Independent of verificationStatus.
const (
	StatusNeeded   = "needed"
	StatusUploaded = "uploaded"
	StatusReplaced = "replaced"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

// Reviewer-facing verification states. Any state may move to any other via an
// explicit verifier-driven update; the machine enforces membership, not order.
const (
	VerificationNotRequired        = "not_required"
	VerificationPendingSubmission  = "pending_submission"
	VerificationPendingVerify      = "pending_verification"
	VerificationInProgress         = "verification_in_progress"
	VerificationVerified           = "verified"
	VerificationRejected           = "rejected"
	VerificationUnableToVerify     = "unable_to_verify"
)

// Reviewer-assignment workflow, correlated with but independent of
// verificationStatus.
const (
	WorkflowNone          = "none"
	WorkflowPendingReview = "pending_review"
	WorkflowUnderReview   = "under_review"
	WorkflowEscalated     = "escalated"
	WorkflowCompleted     = "completed"
)

var validVerificationStatuses = map[string]bool{
	VerificationNotRequired:       true,
	VerificationPendingSubmission: true,
	VerificationPendingVerify:     true,
	VerificationInProgress:        true,
	VerificationVerified:          true,
	VerificationRejected:          true,
	VerificationUnableToVerify:    true,
}

var validWorkflowStates = map[string]bool{
	WorkflowNone:          true,
	WorkflowPendingReview: true,
	WorkflowUnderReview:   true,
	WorkflowEscalated:     true,
	WorkflowCompleted:     true,
}

// ValidVerificationStatus reports whether s is one of the seven literals.
func ValidVerificationStatus(s string) bool {
	return validVerificationStatuses[s]
}

// ValidWorkflowState reports whether s is a recognized workflow state.
func ValidWorkflowState(s string) bool {
	return validWorkflowStates[s]
}

// seedVerificationStatus derives the initial verification state from the
// document type's verification-requirement flag.
func seedVerificationStatus(required bool) string {
	if required {
		return VerificationPendingSubmission
	}
	return VerificationNotRequired
}
