package chat

import (
	"strings"

	"saggio/server/internal/model"
)

// fallbackResponse produces the canned answer used whenever no remote
// completion is available. It keys on the lowercase text of the last user
// message, so repeated questions get repeated answers.
func fallbackResponse(role model.Role, lastUserMessage string) string {
	question := strings.ToLower(lastUserMessage)
	switch role {
	case model.RoleProfessor:
		return professorFallback(question)
	case model.RoleAdmin:
		return adminFallback
	case model.RoleStudent:
		return studentFallback(question)
	default:
		return studentFallback(question)
	}
}

func studentFallback(question string) string {
	if containsAny(question, "estudio", "técnica", "aprend") {
		return "**Técnicas de Estudio Recomendadas:**\n\n• **Técnica Pomodoro:** 25 min de estudio + 5 min descanso. Ideal para estadística y metodología\n• **Práctica Espaciada:** Repasa el contenido a los 1, 3, 7 y 14 días. Aumenta retención hasta 80%\n• **Mapas Conceptuales:** Conecta visualmente los temas del módulo con colores\n• **Método Cornell:** Divide tu hoja en notas, preguntas y resumen\n\n¿Quieres que te genere un plan de estudio semanal personalizado?"
	}
	if containsAny(question, "taller", "práctico", "ejercicio") {
		return "**Taller Práctico: Mini-Investigación (3 horas)**\n\n1. Elige un problema cotidiano en tu entorno universitario\n2. Formula una pregunta de investigación SMART\n3. Define objetivos: general y 2 específicos\n4. Propón una hipótesis comprobable\n5. Diseña un mini-instrumento de 5 preguntas\n\n**Criterios de evaluación:**\n• Claridad del problema (25%)\n• Coherencia metodológica (35%)\n• Presentación (40%)\n\n¿Necesitas una plantilla para organizar el taller?"
	}
	return "Entiendo tu consulta. Como estudiante de Saggio, te recomiendo:\n\n• Revisar el módulo correspondiente en **Contenido**\n• Consultar los recursos en la **Biblioteca**\n• Si tienes dudas persistentes, agenda una **asesoría** con un tutor\n• Usa el buscador de la plataforma para encontrar material específico\n\n¿Hay algún tema específico del curso en el que necesites ayuda más detallada?"
}

func professorFallback(question string) string {
	if containsAny(question, "tendencia", "actual", "tema") {
		return "**Temas de Alta Relevancia para 2025:**\n\n**🤖 IA en Educación Superior:**\n• Uso ético de IA generativa en el aula\n• Detección de plagio con IA\n• Personalización del aprendizaje\n\n**📊 Learning Analytics:**\n• Dashboards de seguimiento estudiantil\n• Predicción temprana de deserción\n• Evaluación adaptativa\n\n**🌐 Pedagogías Digitales:**\n• Microlearning y nanodegrees\n• Gamificación basada en evidencia\n• Comunidades de práctica en línea\n\n¿Quieres recursos bibliográficos sobre alguno de estos temas?"
	}
	return "Como docente universitario, te sugiero:\n\n• Explorar publicaciones recientes en revistas Q1 del área\n• Adaptar el contenido con **aprendizaje activo**\n• Incorporar evidencias de investigación en tus clases\n• Crear espacios de reflexión crítica\n\n¿Quieres que te ayude a diseñar una actividad o buscar recursos específicos?"
}

const adminFallback = "**Análisis de Gestión Saggio:**\n\nRecomendaciones basadas en mejores prácticas LMS:\n\n• **Engagement:** Implementar notificaciones push personalizadas\n• **Retención:** Gamificación y sistema de logros\n• **Analytics:** Dashboard semanal para coordinadores\n• **Seguridad:** Revisión trimestral de permisos de usuarios\n\n¿Necesitas ayuda con algún aspecto específico de la plataforma?"

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
