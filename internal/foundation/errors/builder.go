package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder with SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts a builder wrapping err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// WithHint attaches a fix suggestion shown next to the message.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Build returns the error. The builder must not be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().WithHint("check the site configuration file")
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().WithHint("check the site configuration file")
}

func MarkupError(message string) *ErrorBuilder {
	return NewError(CategoryMarkup, message)
}

func TranslationError(message string) *ErrorBuilder {
	return NewError(CategoryTranslation, message).WithHint("check <% %> and ${ } pairs in the file")
}

func CompileError(message string) *ErrorBuilder {
	return NewError(CategoryCompile, message).WithHint("rerun with -v to see the generated source")
}

func RenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message)
}

func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

func JournalError(message string) *ErrorBuilder {
	return NewError(CategoryJournal, message).WithHint("delete the journal in cache_dir to start fresh")
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
