package codec

// MarkManaged sets the boolean "managed" attribute at the object's root to
// the command-supplied value (spec §4.5). When managed is false the key is
// removed rather than written as false, even if the object already carries
// managed: true — a push with --managed=false must be able to clear a
// previously-managed object, not merely skip setting the flag.
func MarkManaged(obj *Object, managed bool) {
	if managed {
		obj.Set("managed", true)
		return
	}
	obj.Delete("managed")
}
