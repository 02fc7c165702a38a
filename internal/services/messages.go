package services

import "fmt"

const (
	msgUsernameMissing   = "The username is missing!"
	msgUserMissing       = "The user is missing!"
	msgRoleMissing       = "The role is missing!"
	msgInvalidUser       = "Please use a valid user!"
	msgInvalidRole       = "Not a valid role!"
	msgNotAdmin          = "You are not allowed to execute this command!"
	msgAlreadyInit       = "This bot has already been initialized!"
	msgNoRoleSet         = "No role has been set for verified users! Use the command `/init`!"
	msgAlreadyVerified   = "You are already verified! Use the command `/reset` to delete all your data from our database, remove all your roles and verify yourself again."
	msgInProgress        = "You already have a verification in progress! Please wait for it to finish."
	msgAddFailed         = "Unfortunately we could not add you to our database! Please try again later!"
	msgUpdateFailed      = "Unfortunately we could not update your data in our database! Please try again later!"
	msgRequestFailed     = "The Habbo Hotel:Origins request has failed! Please try again later!"
	msgCancelled         = "Your verification has been cancelled!"
	msgVerified          = "Congratulations! You have successfully verified yourself!"
	msgResetDone         = "All your data has been deleted and roles removed!"
	msgSomethingWrong    = "Something went wrong! Please try again later!"
	msgUnknownCommand    = "Oops!"
	fmtRoleNotExisting   = "The role with the ID `%d` does not exist! Please remove `verify_role_id` from the settings file, restart the bot and execute the command `/init` again!"
	fmtChallenge         = "To verify yourself, change your motto to `%s` within the next %d seconds and change it again after a successful verification!"
	fmtProfileMissing    = "The Habbo \"%s\" does not exist or the profile has been set to private!\n\n**error:**\n`%s`"
	fmtMottoMismatch     = "The motto of the Habbo \"%s\" was not changed to `%s` within %d seconds. Verification failed!"
	fmtCheckVerified     = "The user <@%s> is verified as Habbo `%s`!"
	fmtCheckNotVerified  = "The user <@%s> is not verified!"
	fmtInfoSent          = "Here is your information about the Habbo `%s` :)"
	fmtRoleSelected      = "Role selected: <@&%d>"
)

// greet prefixes every reply the way all bot answers start.
func greet(userID, body string) string {
	return fmt.Sprintf("Hello <@%s> :)\n\n%s", userID, body)
}

// UnknownCommand is the reply for commands the bot does not handle.
func UnknownCommand() string { return msgUnknownCommand }
