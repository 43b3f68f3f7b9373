package enums

// NotificationType classifies the transient cart notification banner.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationSuccess, NotificationError, NotificationInfo:
		return true
	}
	return false
}
