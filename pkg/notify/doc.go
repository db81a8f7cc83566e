// Package notify delivers run outcomes to external channels. A
// Dispatcher fans a finished run out to the configured notifiers when
// the run contains rule errors or failures at or above a minimum
// severity. Slack delivery posts Block Kit messages to an incoming
// webhook; email delivery sends a multipart HTML and plaintext summary
// through SendGrid or plain SMTP.
//
// Notifier failures are logged and never fail the run that triggered
// them.
package notify
